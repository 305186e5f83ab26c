package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"spoilerblock/shield/pkg/config"
)

// ScanMetrics tracks live scan activity.
//
// Metrics:
//   - shield_scanner_scan_passes_total: Completed passes
//   - shield_scanner_scan_pass_duration_seconds: Pass duration histogram
//   - shield_scanner_pass_segments: Segments visited per pass
//   - shield_scanner_segments_total: Segments by outcome
//   - shield_scanner_change_notifications_total: Content change notifications
type ScanMetrics struct {
	passesTotal         prometheus.Counter
	passDuration        prometheus.Histogram
	passSegments        prometheus.Histogram
	segmentsTotal       *prometheus.CounterVec
	blockedTotal        prometheus.Counter
	changeNotifications prometheus.Counter
}

// NewScanMetrics creates and registers scan metrics with the provided registry.
func NewScanMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ScanMetrics {
	sm := &ScanMetrics{
		passesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "scan_passes_total",
			Help:      "Total number of completed scan passes",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "scan_pass_duration_seconds",
			Help:      "Duration of scan passes in seconds",
			Buckets:   cfg.PassDurationBuckets,
		}),
		passSegments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pass_segments",
			Help:      "Number of segments visited per scan pass",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16K
		}),
		segmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "segments_total",
			Help:      "Total number of segments visited, by outcome",
		}, []string{"outcome"}),
		blockedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "segments_blocked_total",
			Help:      "Total number of segments newly blocked by scan passes",
		}),
		changeNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "change_notifications_total",
			Help:      "Total number of content change notifications",
		}),
	}

	registry.MustRegister(
		sm.passesTotal,
		sm.passDuration,
		sm.passSegments,
		sm.segmentsTotal,
		sm.blockedTotal,
		sm.changeNotifications,
	)
	return sm
}

// RecordPass records a completed pass.
func (sm *ScanMetrics) RecordPass(d time.Duration, segments, blocked int) {
	sm.passesTotal.Inc()
	sm.passDuration.Observe(d.Seconds())
	sm.passSegments.Observe(float64(segments))
	sm.blockedTotal.Add(float64(blocked))
}

// RecordSegment records one segment outcome.
func (sm *ScanMetrics) RecordSegment(outcome string) {
	sm.segmentsTotal.WithLabelValues(outcome).Inc()
}

// RecordChange records one content change notification.
func (sm *ScanMetrics) RecordChange() {
	sm.changeNotifications.Inc()
}
