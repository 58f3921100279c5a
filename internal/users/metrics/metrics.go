package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the users domain.
type Metrics struct {
	UsersRegistered       prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec
}

// New registers the users metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on a caller-supplied registry; tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_users_registered_total",
			Help: "Total number of users successfully registered",
		}),
		RegistrationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_registrations_rejected_total",
			Help: "Registrations rejected, by reason",
		}, []string{"reason"}),
	}
}

// IncrementUsersRegistered increments the registered users counter by 1.
func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

// IncrementRegistrationsRejected counts a rejected registration under the
// given reason (region, geocode, conflict, internal).
func (m *Metrics) IncrementRegistrationsRejected(reason string) {
	m.RegistrationsRejected.WithLabelValues(reason).Inc()
}
