package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"spoilerblock/shield/pkg/config"
)

// EventMetrics exports detection event log counters. The recorder keeps its
// own totals, so they are read on scrape rather than pushed.
type EventMetrics struct {
	cfg         *config.MetricsConfig
	registry    *prometheus.Registry
	prunedTotal prometheus.Counter
}

// NewEventMetrics creates and registers event log metrics.
func NewEventMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EventMetrics {
	em := &EventMetrics{
		cfg:      cfg,
		registry: registry,
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "events_pruned_total",
			Help:      "Total number of detection events removed by retention",
		}),
	}
	registry.MustRegister(em.prunedTotal)
	return em
}

// WatchRecorder exports the written and failed totals reported by stats.
func (em *EventMetrics) WatchRecorder(stats func() (written, failed int64)) error {
	written := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: em.cfg.Namespace,
		Subsystem: em.cfg.Subsystem,
		Name:      "events_recorded_total",
		Help:      "Total number of detection events written to storage",
	}, func() float64 {
		w, _ := stats()
		return float64(w)
	})
	failed := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: em.cfg.Namespace,
		Subsystem: em.cfg.Subsystem,
		Name:      "events_failed_total",
		Help:      "Total number of detection events that failed to store",
	}, func() float64 {
		_, f := stats()
		return float64(f)
	})

	if err := em.registry.Register(written); err != nil {
		return err
	}
	return em.registry.Register(failed)
}

// RecordPruned adds n removed events.
func (em *EventMetrics) RecordPruned(n int64) {
	if n > 0 {
		em.prunedTotal.Add(float64(n))
	}
}
