package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"spoilerblock/shield/pkg/config"
)

// CacheMetrics tracks verdict cache performance.
//
// Metrics:
//   - shield_scanner_cache_hits_total: Total cache hits by cache name
//   - shield_scanner_cache_misses_total: Total cache misses by cache name
//   - shield_scanner_cache_entries: Current number of entries, sampled on scrape
//
// Hit rate is left to PromQL:
//
//	rate(shield_scanner_cache_hits_total{cache="verdict"}[5m]) /
//	(rate(shield_scanner_cache_hits_total{cache="verdict"}[5m]) +
//	 rate(shield_scanner_cache_misses_total{cache="verdict"}[5m]))
type CacheMetrics struct {
	cfg         *config.MetricsConfig
	registry    *prometheus.Registry
	hitsTotal   *prometheus.CounterVec
	missesTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		cfg:      cfg,
		registry: registry,
		hitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}, []string{"cache"}),
		missesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"cache"}),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal)
	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// WatchSize exports the size reported by size as a gauge sampled on every
// scrape. Registering the same cache name twice fails.
func (cm *CacheMetrics) WatchSize(cacheName string, size func() int) error {
	return cm.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   cm.cfg.Namespace,
		Subsystem:   cm.cfg.Subsystem,
		Name:        "cache_entries",
		Help:        "Current number of entries in the cache",
		ConstLabels: prometheus.Labels{"cache": cacheName},
	}, func() float64 { return float64(size()) }))
}
