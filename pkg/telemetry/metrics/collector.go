package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"spoilerblock/shield/pkg/config"
)

// VerdictCache is the cache name used for the detection verdict cache.
const VerdictCache = "verdict"

// Collector owns a private Prometheus registry and every Shield metric.
// It satisfies the Metrics interfaces of the scanner and suppression
// packages, so one Collector can be handed to both.
//
// When the configuration disables metrics, recording methods return
// immediately.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	scan        *ScanMetrics
	suppression *SuppressionMetrics
	cache       *CacheMetrics
	events      *EventMetrics
}

// NewCollector creates a collector. If registry is nil, a fresh registry is
// used. Zero naming fields fall back to the configuration defaults.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if c.Subsystem == "" {
		c.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(c.PassDurationBuckets) == 0 {
		c.PassDurationBuckets = config.DefaultPassDurationBuckets
	}

	return &Collector{
		config:      &c,
		registry:    registry,
		scan:        NewScanMetrics(&c, registry),
		suppression: NewSuppressionMetrics(&c, registry),
		cache:       NewCacheMetrics(&c, registry),
		events:      NewEventMetrics(&c, registry),
	}
}

// ObservePass records a completed scan pass.
func (c *Collector) ObservePass(d time.Duration, segments, blocked int) {
	if !c.config.Enabled {
		return
	}
	c.scan.RecordPass(d, segments, blocked)
}

// ObserveSegment records one segment outcome. A "cached" outcome also
// counts as a verdict cache hit and "scored" as a miss.
func (c *Collector) ObserveSegment(outcome string) {
	if !c.config.Enabled {
		return
	}
	c.scan.RecordSegment(outcome)
	switch outcome {
	case "cached":
		c.cache.RecordHit(VerdictCache)
	case "scored":
		c.cache.RecordMiss(VerdictCache)
	}
}

// ObserveChangeNotification records a content change notification.
func (c *Collector) ObserveChangeNotification() {
	if !c.config.Enabled {
		return
	}
	c.scan.RecordChange()
}

// ObserveTransition records a segment entering state.
func (c *Collector) ObserveTransition(state string) {
	if !c.config.Enabled {
		return
	}
	c.suppression.RecordTransition(state)
}

// ObserveReveal records a reveal.
func (c *Collector) ObserveReveal() {
	if !c.config.Enabled {
		return
	}
	c.suppression.RecordReveal()
}

// ObservePresentationFailure records a failed presenter edit.
func (c *Collector) ObservePresentationFailure() {
	if !c.config.Enabled {
		return
	}
	c.suppression.RecordPresentationFailure()
}

// ObservePruned records events removed by retention.
func (c *Collector) ObservePruned(n int64) {
	if !c.config.Enabled {
		return
	}
	c.events.RecordPruned(n)
}

// WatchCacheSize exports the verdict cache size, sampled on scrape.
func (c *Collector) WatchCacheSize(size func() int) error {
	return c.cache.WatchSize(VerdictCache, size)
}

// WatchRecorder exports event recorder totals, sampled on scrape.
func (c *Collector) WatchRecorder(stats func() (written, failed int64)) error {
	return c.events.WatchRecorder(stats)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
