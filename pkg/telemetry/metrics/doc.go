// Package metrics provides Prometheus metrics for Shield.
//
// # Metrics Categories
//
//   - Scan Metrics: passes, pass duration, segments by outcome, change notifications
//   - Suppression Metrics: state transitions, reveals, presentation failures
//   - Cache Metrics: verdict cache hits, misses and size
//   - Event Metrics: detection events written, failed and pruned
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	tracker := suppression.NewTracker(suppression.TrackerConfig{Metrics: collector})
//	controller, err := scanner.NewController(scanner.ControllerConfig{Metrics: collector})
//
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Every metric lives in the collector's own registry, so tests can create
// any number of collectors without registration conflicts.
package metrics
