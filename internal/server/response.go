package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ledgerline-dev/ledgerline/internal/ceiling"
	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
	"github.com/ledgerline-dev/ledgerline/internal/ledger"
	"github.com/ledgerline-dev/ledgerline/internal/statement"
	"github.com/ledgerline-dev/ledgerline/internal/store"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core's error taxonomy onto HTTP statuses. Domain errors
// pass through unmodified in the message; nothing is downgraded or hidden.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, chart.ErrAccountNotFound),
		errors.Is(err, chart.ErrParentNotFound),
		errors.Is(err, chart.ErrGroupNotFound),
		errors.Is(err, currency.ErrCurrencyNotFound),
		errors.Is(err, ledger.ErrReferenceNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ledger.ErrUnbalancedTransaction):
		return http.StatusConflict, "UNBALANCED_TRANSACTION"
	case errors.Is(err, ceiling.ErrCeilingExceeded):
		return http.StatusConflict, "CEILING_EXCEEDED"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "CONCURRENT_MODIFICATION"
	case errors.Is(err, chart.ErrCycleDetected):
		return http.StatusBadRequest, "CYCLE_DETECTED"
	case errors.Is(err, chart.ErrInvalidLevelCombination):
		return http.StatusBadRequest, "INVALID_LEVEL_COMBINATION"
	case errors.Is(err, chart.ErrDuplicateCode):
		return http.StatusBadRequest, "DUPLICATE_CODE"
	case errors.Is(err, currency.ErrRateOutOfRange):
		return http.StatusBadRequest, "RATE_OUT_OF_RANGE"
	case errors.Is(err, currency.ErrMultipleLocalCurrencies):
		return http.StatusBadRequest, "MULTIPLE_LOCAL_CURRENCIES"
	case errors.Is(err, currency.ErrInvalidRate):
		return http.StatusBadRequest, "INVALID_RATE"
	case errors.Is(err, statement.ErrInvalidFilter):
		return http.StatusBadRequest, "INVALID_FILTER"
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// rejectionReason labels a posting failure for metrics.
func rejectionReason(err error) string {
	_, code := classify(err)
	return code
}
