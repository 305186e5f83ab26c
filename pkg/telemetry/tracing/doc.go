// Package tracing provides OpenTelemetry tracing for Shield.
//
// Scan passes and reveals are recorded as spans and exported over OTLP/gRPC.
// When tracing is disabled, New returns a noop tracer and instrumented code
// pays almost nothing.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctrl, err := scanner.NewController(scanner.ControllerConfig{
//	    Tracer: tracer.Tracer(),
//	})
//
// HTTPMiddleware extracts W3C Trace Context from requests served by the
// local control endpoints, so a caller's trace continues into the reveal span.
package tracing
