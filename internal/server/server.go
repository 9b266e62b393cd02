// Package server is the HTTP boundary the dashboard screens call. It decodes
// requests, delegates to the ledger core, and renders JSON; no business logic
// lives here.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerline-dev/ledgerline/internal/cache"
	"github.com/ledgerline-dev/ledgerline/internal/chart"
	"github.com/ledgerline-dev/ledgerline/internal/currency"
	"github.com/ledgerline-dev/ledgerline/internal/ledger"
	"github.com/ledgerline-dev/ledgerline/internal/statement"
	"github.com/ledgerline-dev/ledgerline/pkg/metrics"
)

// statementCache is the read-through cache the statement handler consults.
// *cache.Cache implements it; a nil receiver means caching is disabled.
type statementCache interface {
	GetStatement(ctx context.Context, key string) ([]byte, error)
	SetStatement(ctx context.Context, key string, data []byte) error
}

// Server holds the wired services behind the HTTP API.
type Server struct {
	ledger     *ledger.Service
	chart      *chart.Service
	currencies *currency.Service
	statements *statement.Generator
	metrics    *metrics.Collector
	cache      statementCache
	logger     *slog.Logger

	// persistChart, when set, is called after a successful chart or
	// currency mutation so the CSV files on disk track the arenas.
	persistChart func() error

	requestTimeout time.Duration
}

// NewServer creates a Server. c and persistChart may be nil.
func NewServer(
	ld *ledger.Service,
	ch *chart.Service,
	cur *currency.Service,
	gen *statement.Generator,
	col *metrics.Collector,
	c statementCache,
	persistChart func() error,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = (*cache.Cache)(nil)
	}
	return &Server{
		ledger:         ld,
		chart:          ch,
		currencies:     cur,
		statements:     gen,
		metrics:        col,
		cache:          c,
		persistChart:   persistChart,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

// RegisterRoutes binds the API onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("POST /api/v1/accounts", s.createAccount)
	mux.HandleFunc("GET /api/v1/accounts/tree", s.accountTree)
	mux.HandleFunc("POST /api/v1/accounts/{id}/reparent", s.reparentAccount)
	mux.HandleFunc("POST /api/v1/groups", s.createGroup)

	mux.HandleFunc("GET /api/v1/currencies", s.listCurrencies)
	mux.HandleFunc("PUT /api/v1/currencies/{id}/rate", s.setRate)

	mux.HandleFunc("POST /api/v1/ceilings", s.setCeiling)

	mux.HandleFunc("POST /api/v1/postings", s.createPosting)
	mux.HandleFunc("POST /api/v1/postings/reverse", s.reversePosting)

	mux.HandleFunc("GET /api/v1/statement", s.getStatement)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
