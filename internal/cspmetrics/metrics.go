// Package cspmetrics exposes Prometheus collectors for dispatcher
// throughput, handler latency, and status-code distribution. Grounded on
// the teacher's internal/escrow/metrics.go, which builds a single Metrics
// struct of promauto vectors and exposes a Record* method per event rather
// than letting callers touch prometheus types directly.
package cspmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector cmd/cspserver registers.
type Metrics struct {
	MessagesTotal    *prometheus.CounterVec
	HandlerDuration  *prometheus.HistogramVec
	StatusCodeTotal  *prometheus.CounterVec
	ActiveHandlers   prometheus.Gauge
}

// New creates and registers all collectors against the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer is New but against an explicit registerer, letting
// tests use a throwaway prometheus.NewRegistry() instead of colliding with
// other packages' default-registry collectors.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csp_messages_total",
				Help: "Total number of CSP messages handled, by message kind.",
			},
			[]string{"kind"},
		),
		HandlerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "csp_handler_duration_seconds",
				Help:    "Duration of a single registered handler's HandleData call.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"struct_id"},
		),
		StatusCodeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csp_status_code_total",
				Help: "Total number of dispatcher replies, by terminal status code.",
			},
			[]string{"status"},
		),
		ActiveHandlers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "csp_active_handlers",
				Help: "Number of handler invocations currently in flight.",
			},
		),
	}
}

// RecordMessage records one dispatched message of the given kind.
func (m *Metrics) RecordMessage(kind string) {
	m.MessagesTotal.WithLabelValues(kind).Inc()
}

// RecordHandler records one handler invocation's duration.
func (m *Metrics) RecordHandler(structID string, seconds float64) {
	m.HandlerDuration.WithLabelValues(structID).Observe(seconds)
}

// RecordStatus records the terminal status code of a HandleMessage call.
func (m *Metrics) RecordStatus(status string) {
	m.StatusCodeTotal.WithLabelValues(status).Inc()
}
