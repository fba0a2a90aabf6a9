package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments shared across the application.
// Feature-specific counters live here rather than per-feature packages
// because the surface is small; split them out if it grows.
type Metrics struct {
	RequestsSubmitted prometheus.Counter
	DecisionsTotal    *prometheus.CounterVec
	AccessChecks      *prometheus.CounterVec
	GrantsAdded       prometheus.Counter
	GrantsRevoked     prometheus.Counter
	AuditEvents       prometheus.Counter
	HTTPDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dataportal_access_requests_submitted_total",
			Help: "Total access requests submitted",
		}),
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dataportal_access_request_decisions_total",
			Help: "Total access request decisions by outcome",
		}, []string{"decision"}),
		AccessChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dataportal_access_checks_total",
			Help: "Total access checks by result reason",
		}, []string{"reason"}),
		GrantsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dataportal_grants_added_total",
			Help: "Total grants materialized",
		}),
		GrantsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dataportal_grants_revoked_total",
			Help: "Total grants revoked",
		}),
		AuditEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dataportal_audit_events_total",
			Help: "Total audit events appended",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dataportal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
	}
}

// ObserveHTTPDuration records one request's latency.
func (m *Metrics) ObserveHTTPDuration(method, path string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
	}
}

// IncDecision counts a decision outcome.
func (m *Metrics) IncDecision(decision string) {
	if m != nil {
		m.DecisionsTotal.WithLabelValues(decision).Inc()
	}
}

// IncAccessCheck counts an access check by reason.
func (m *Metrics) IncAccessCheck(reason string) {
	if m != nil {
		m.AccessChecks.WithLabelValues(reason).Inc()
	}
}
