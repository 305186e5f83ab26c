// Package telemetry groups the observability packages used by shield.
//
//   - logging: slog construction with page-text redaction
//   - metrics: Prometheus collector for scan passes, suppression and the event log
//   - tracing: OpenTelemetry spans for scan passes and reveals
//   - health: liveness and readiness probes for shield run
//
// Logs never carry segment text when telemetry.logging.redact_content is on
// (the default). Attributes named text, preview or content are masked before
// they reach the handler, so a spoiler cannot leak through a debug log.
//
// Typical wiring in a command:
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.Register("events", health.StorageCheck(store))
package telemetry
