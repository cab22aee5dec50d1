package filter

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethnicdev/gatehouse/pkg/resilience"
)

const metricsNamespace = "gatehouse"

// Metrics records filter decisions. A nil *Metrics records nothing.
type Metrics struct {
	decisions     *prometheus.CounterVec
	introspection *prometheus.HistogramVec
}

// NewMetrics builds the filter collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "auth_decisions_total",
			Help:      "Requests seen by the authentication filter, by outcome.",
		}, []string{"outcome"}),
		introspection: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "introspection_duration_seconds",
			Help:      "Latency of introspection calls to the identity service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}

	reg.MustRegister(m.decisions, m.introspection)
	return m
}

func (m *Metrics) decision(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeIntrospection(start time.Time, valid bool, err error) {
	if m == nil {
		return
	}

	result := "invalid"
	switch {
	case err != nil:
		result = "error"
	case valid:
		result = "valid"
	}
	m.introspection.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, errMissingHeader):
		return "missing_header"
	case errors.Is(err, errNotBearer):
		return "not_bearer"
	case errors.Is(err, errInactive):
		return "inactive"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
