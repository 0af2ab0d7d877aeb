package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors of the arbitration layer. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	StaleReferences prometheus.Counter
	LookupFailures  *prometheus.CounterVec
	GuardDecisions  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "identity_resolutions_total",
			Help:      "Identity resolutions by winning rule.",
		}, []string{"rule"}),
		StaleReferences: f.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "stale_references_total",
			Help:      "Order references discarded because they belong to another cart.",
		}),
		LookupFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "lookup_failures_total",
			Help:      "Collaborator lookups that failed with something other than not-found.",
		}, []string{"lookup"}),
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "guard_decisions_total",
			Help:      "Endpoint guard decisions by surface and outcome.",
		}, []string{"surface", "outcome"}),
	}
}

func (m *Metrics) Resolution(rule string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(rule).Inc()
}

func (m *Metrics) StaleReference() {
	if m == nil {
		return
	}
	m.StaleReferences.Inc()
}

func (m *Metrics) LookupFailure(lookup string) {
	if m == nil {
		return
	}
	m.LookupFailures.WithLabelValues(lookup).Inc()
}

func (m *Metrics) GuardDecision(surface, outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(surface, outcome).Inc()
}
