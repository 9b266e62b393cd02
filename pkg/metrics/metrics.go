// Package metrics exposes Prometheus counters for the ledger core.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can create collectors freely.
type Collector struct {
	registry         *prometheus.Registry
	postingsAccepted prometheus.Counter
	postingsRejected *prometheus.CounterVec
	ceilingWarnings  prometheus.Counter
	reversals        prometheus.Counter
	postingDuration  prometheus.Histogram
	statements       *prometheus.CounterVec
	logger           *slog.Logger
}

// NewCollector creates a Collector with all ledger metrics registered.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		postingsAccepted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_postings_accepted_total",
			Help: "Total number of accepted postings",
		}),
		postingsRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_postings_rejected_total",
			Help: "Total number of rejected postings by reason",
		}, []string{"reason"}),
		ceilingWarnings: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_ceiling_warnings_total",
			Help: "Total number of accepted postings that breached a warn ceiling",
		}),
		reversals: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "ledger_reversals_total",
			Help: "Total number of reversal postings",
		}),
		postingDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_posting_duration_seconds",
			Help:    "Time taken for a check-and-post",
			Buckets: prometheus.DefBuckets,
		}),
		statements: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_statements_served_total",
			Help: "Total number of statements served by mode, cached or generated",
		}, []string{"mode"}),
		logger: logger,
	}
}

// PostingAccepted records an accepted posting and its warn-ceiling count.
func (c *Collector) PostingAccepted(duration time.Duration, warnings int) {
	c.postingsAccepted.Inc()
	c.postingDuration.Observe(duration.Seconds())
	for i := 0; i < warnings; i++ {
		c.ceilingWarnings.Inc()
	}
}

// PostingRejected records a rejected posting by reason label.
func (c *Collector) PostingRejected(reason string, duration time.Duration) {
	c.postingsRejected.WithLabelValues(reason).Inc()
	c.postingDuration.Observe(duration.Seconds())
}

// ReversalRecorded records a reversal posting.
func (c *Collector) ReversalRecorded() {
	c.reversals.Inc()
}

// StatementServed records a served statement by mode, whether it came from
// the cache or was generated.
func (c *Collector) StatementServed(mode string) {
	c.statements.WithLabelValues(mode).Inc()
}

// Handler returns the scrape handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in the background.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		c.logger.Info("starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	return server
}
