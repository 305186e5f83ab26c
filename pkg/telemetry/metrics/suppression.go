package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"spoilerblock/shield/pkg/config"
)

// SuppressionMetrics tracks segment state changes and presentation.
type SuppressionMetrics struct {
	transitionsTotal     *prometheus.CounterVec
	revealsTotal         prometheus.Counter
	presentationFailures prometheus.Counter
}

// NewSuppressionMetrics creates and registers suppression metrics.
func NewSuppressionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SuppressionMetrics {
	sm := &SuppressionMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "transitions_total",
			Help:      "Total number of segment state transitions, by target state",
		}, []string{"state"}),
		revealsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "reveals_total",
			Help:      "Total number of segments revealed by the user",
		}),
		presentationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "presentation_failures_total",
			Help:      "Total number of failed suppress or unsuppress edits",
		}),
	}

	registry.MustRegister(sm.transitionsTotal, sm.revealsTotal, sm.presentationFailures)
	return sm
}

// RecordTransition records a transition into state.
func (sm *SuppressionMetrics) RecordTransition(state string) {
	sm.transitionsTotal.WithLabelValues(state).Inc()
}

// RecordReveal records a reveal.
func (sm *SuppressionMetrics) RecordReveal() {
	sm.revealsTotal.Inc()
}

// RecordPresentationFailure records a failed presenter edit.
func (sm *SuppressionMetrics) RecordPresentationFailure() {
	sm.presentationFailures.Inc()
}
