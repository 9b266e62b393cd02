package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline-dev/ledgerline/internal/cache"
	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/id"
	"github.com/ledgerline-dev/ledgerline/internal/ledger"
	"github.com/ledgerline-dev/ledgerline/internal/model"
	"github.com/ledgerline-dev/ledgerline/internal/statement"
)

const dateFormat = "2006-01-02"

// CreateAccountRequest mirrors the chart-of-accounts admin screen payload.
type CreateAccountRequest struct {
	NameAr   string `json:"name_ar"`
	NameEn   string `json:"name_en"`
	Code     string `json:"code,omitempty"`
	ParentID int64  `json:"parent_id,omitempty"`
	Level    string `json:"account_level"`
	Nature   string `json:"nature"`
	GroupID  int64  `json:"group_id,omitempty"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}

	accountID, err := s.chart.Create(chart.CreateParams{
		NameAr:   req.NameAr,
		NameEn:   req.NameEn,
		Code:     req.Code,
		ParentID: req.ParentID,
		Level:    model.AccountLevel(req.Level),
		Nature:   model.AccountNature(req.Nature),
		GroupID:  req.GroupID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.persist()
	acct, _ := s.chart.Get(accountID)
	writeJSON(w, http.StatusCreated, acct)
}

func (s *Server) reparentAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad account id", ledger.ErrValidation))
		return
	}

	var req struct {
		NewParentID int64 `json:"new_parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}

	if err := s.chart.Reparent(accountID, req.NewParentID); err != nil {
		writeError(w, err)
		return
	}

	s.persist()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) accountTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chart.BuildTree(s.chart.All()))
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}

	groupID, err := s.chart.CreateGroup(req.Code, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	s.persist()
	group, _ := s.chart.Group(groupID)
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currencies.All())
}

func (s *Server) setRate(w http.ResponseWriter, r *http.Request) {
	currencyID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad currency id", ledger.ErrValidation))
		return
	}

	var req struct {
		Rate decimal.Decimal `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}

	if err := s.currencies.SetRate(currencyID, req.Rate); err != nil {
		writeError(w, err)
		return
	}

	s.persist()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetCeilingRequest configures a credit/debit limit.
type SetCeilingRequest struct {
	Scope      string          `json:"scope"`
	TargetID   int64           `json:"target_id"`
	CurrencyID int64           `json:"currency_id"`
	Amount     decimal.Decimal `json:"ceiling_amount"`
	Nature     string          `json:"account_nature"`
	Action     string          `json:"exceed_action"`
}

func (s *Server) setCeiling(w http.ResponseWriter, r *http.Request) {
	var req SetCeilingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	c, err := s.ledger.SetCeiling(ctx, model.AccountCeiling{
		Scope:      model.CeilingScope(req.Scope),
		TargetID:   req.TargetID,
		CurrencyID: req.CurrencyID,
		Amount:     req.Amount,
		Nature:     model.AccountNature(req.Nature),
		Action:     model.ExceedAction(req.Action),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// PostingLeg is one debit-or-credit row of a voucher.
type PostingLeg struct {
	AccountID  int64           `json:"account_id"`
	CurrencyID int64           `json:"currency_id"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Date       string          `json:"journal_date"`
	Notes      string          `json:"notes,omitempty"`
	BranchID   int64           `json:"branch_id,omitempty"`
}

// CreatePostingRequest is the voucher payload shared by the receipt, payment,
// manual journal and currency exchange screens.
type CreatePostingRequest struct {
	ReferenceType string       `json:"reference_type"`
	ReferenceID   string       `json:"reference_id,omitempty"` // generated when empty
	CreatedBy     string       `json:"created_by,omitempty"`
	Legs          []PostingLeg `json:"legs"`
}

// PostingResponse reports the accepted legs and any warn-ceiling breaches.
type PostingResponse struct {
	ReferenceID string               `json:"reference_id"`
	Legs        []model.JournalEntry `json:"legs"`
	Warnings    []ceilingWarning     `json:"warnings,omitempty"`
}

type ceilingWarning struct {
	AccountID   int64  `json:"account_id"`
	CurrencyID  int64  `json:"currency_id"`
	Ceiling     string `json:"ceiling"`
	Prospective string `json:"prospective"`
}

func (s *Server) createPosting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}

	ref := req.ReferenceID
	if ref == "" {
		ref = id.NewReference()
	}

	legs := make([]model.JournalEntry, len(req.Legs))
	for i, l := range req.Legs {
		date, err := time.Parse(dateFormat, l.Date)
		if err != nil {
			writeError(w, fmt.Errorf("%w: leg %d: parsing journal_date %q", ledger.ErrValidation, i, l.Date))
			return
		}
		legs[i] = model.JournalEntry{
			Date:          date,
			AccountID:     l.AccountID,
			CurrencyID:    l.CurrencyID,
			Debit:         l.Debit,
			Credit:        l.Credit,
			ReferenceType: model.ReferenceType(req.ReferenceType),
			ReferenceID:   ref,
			Notes:         l.Notes,
			BranchID:      l.BranchID,
			CreatedBy:     req.CreatedBy,
		}
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	res, err := s.ledger.Post(ctx, legs)
	if err != nil {
		s.metrics.PostingRejected(rejectionReason(err), time.Since(start))
		writeError(w, err)
		return
	}
	s.metrics.PostingAccepted(time.Since(start), len(res.Warnings))

	resp := PostingResponse{ReferenceID: ref, Legs: res.Legs}
	for _, warn := range res.Warnings {
		resp.Warnings = append(resp.Warnings, ceilingWarning{
			AccountID:   warn.AccountID,
			CurrencyID:  warn.CurrencyID,
			Ceiling:     warn.Ceiling.StringFixed(2),
			Prospective: warn.Prospective.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) reversePosting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferenceID string `json:"reference_id"`
		CreatedBy   string `json:"created_by,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decoding body: %s", ledger.ErrValidation, err))
		return
	}
	if req.ReferenceID == "" {
		writeError(w, fmt.Errorf("%w: reference_id is required", ledger.ErrValidation))
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	legs, err := s.ledger.Reverse(ctx, req.ReferenceID, req.CreatedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.ReversalRecorded()

	writeJSON(w, http.StatusCreated, PostingResponse{
		ReferenceID: id.ReversalReference(req.ReferenceID),
		Legs:        legs,
	})
}

func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
	f, err := statementFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	key := cache.StatementKey(f)
	if data, err := s.cache.GetStatement(ctx, key); err == nil && data != nil {
		s.metrics.StatementServed(string(f.Mode))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	stmt, err := s.statements.Generate(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.StatementServed(string(f.Mode))

	data, err := json.Marshal(stmt)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.cache.SetStatement(ctx, key, data); err != nil {
		s.logger.Warn("caching statement failed", slog.String("error", err.Error()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func statementFilter(r *http.Request) (statement.Filter, error) {
	q := r.URL.Query()

	f := statement.Filter{
		Mode:         statement.Mode(q.Get("mode")),
		SummaryType:  statement.SummaryType(q.Get("summary_type")),
		DetailedType: statement.DetailedType(q.Get("detailed_type")),
	}

	var err error
	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"account_id", &f.AccountID},
		{"account_group_id", &f.GroupID},
		{"currency_id", &f.CurrencyID},
	} {
		if v := q.Get(p.name); v != "" {
			*p.dst, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("%w: bad %s %q", statement.ErrInvalidFilter, p.name, v)
			}
		}
	}

	if v := q.Get("from"); v != "" {
		f.From, err = time.Parse(dateFormat, v)
		if err != nil {
			return f, fmt.Errorf("%w: bad from date %q", statement.ErrInvalidFilter, v)
		}
	}
	if v := q.Get("to"); v != "" {
		f.To, err = time.Parse(dateFormat, v)
		if err != nil {
			return f, fmt.Errorf("%w: bad to date %q", statement.ErrInvalidFilter, v)
		}
	}
	return f, nil
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func (s *Server) persist() {
	if s.persistChart == nil {
		return
	}
	if err := s.persistChart(); err != nil {
		s.logger.Error("persisting chart failed", slog.String("error", err.Error()))
	}
}
