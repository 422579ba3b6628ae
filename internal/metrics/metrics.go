// Package metrics holds the Prometheus metrics of the contact manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contact write operations used as label values.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpSeed   = "seed"
	OpTrim   = "trim"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ContactWrites   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ContactWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_writes_total",
			Help: "Number of contacts written, by operation",
		}, []string{"operation"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contacts_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ContactsWritten adds n to the counter of the given operation. A nil receiver is a no-op so that
// metrics stay optional for callers.
func (m *Metrics) ContactsWritten(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ContactWrites.WithLabelValues(operation).Add(float64(n))
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
