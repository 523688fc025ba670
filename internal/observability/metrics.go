package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the reconciliation service.
type Metrics struct {
	// Registry owns these metrics; /metrics serves it.
	Registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	rowsRejected *prometheus.CounterVec
}

// NewMetrics registers every metric in a private registry, so tests can
// build as many instances as they need.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corrispettivi_runs_total",
				Help: "Reconciliation runs by outcome.",
			},
			[]string{"outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corrispettivi_run_duration_seconds",
				Help:    "Duration of reconciliation runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		rowsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corrispettivi_rows_rejected_total",
				Help: "Rows excluded because their date could not be parsed.",
			},
			[]string{"source"},
		),
	}
}

// RecordRun counts a finished run and observes its duration.
func (m *Metrics) RecordRun(outcome string, d time.Duration) {
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// AddRejected adds n rejected rows for source.
func (m *Metrics) AddRejected(source string, n int) {
	if n <= 0 {
		return
	}
	m.rowsRejected.WithLabelValues(source).Add(float64(n))
}
