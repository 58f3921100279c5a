package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the auth domain.
type Metrics struct {
	LoginsSucceeded prometheus.Counter
	LoginsFailed    prometheus.Counter
}

// New registers the auth metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on a caller-supplied registry; tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_logins_succeeded_total",
			Help: "Total number of successful logins",
		}),
		LoginsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_logins_failed_total",
			Help: "Total number of failed login attempts",
		}),
	}
}
