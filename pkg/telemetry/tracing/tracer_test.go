package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"spoilerblock/shield/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tr.Enabled() {
		t.Error("expected disabled tracer")
	}

	_, span := tr.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a valid span context")
	}
	span.End()

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNew_BadSampler(t *testing.T) {
	_, err := New(&config.TracingConfig{Enabled: true, Sampler: "sometimes"},
		WithExporter(tracetest.NewInMemoryExporter()))
	if err == nil {
		t.Fatal("expected sampler error")
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tr, err := New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		ServiceName: "shield-test",
	}, WithExporter(exp), WithServiceVersion("1.2.3"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tr.Shutdown(context.Background())

	ctx, span := tr.Tracer().Start(context.Background(), SpanScanPass, PassStart(4))
	if TraceID(ctx) == "" {
		t.Error("expected trace ID in context")
	}
	SetPassAttributes(span, 10, 6, 2, 1, false)
	SetError(span, errors.New("boom"))
	span.End()

	if err := tr.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() error = %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != SpanScanPass {
		t.Errorf("unexpected span name %q", got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status)
	}

	attrs := make(map[string]int64)
	for _, kv := range got.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	if attrs[AttrProfileVersion] != 4 || attrs[AttrSegments] != 10 || attrs[AttrBlocked] != 1 {
		t.Errorf("unexpected attributes %v", got.Attributes)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.25, false},
		{SamplerRatio, 1.5, true},
		{"", 0.1, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestHTTPMiddleware(t *testing.T) {
	// Install the W3C propagator.
	tr, err := New(&config.TracingConfig{Enabled: true, Sampler: SamplerAlways},
		WithExporter(tracetest.NewInMemoryExporter()))
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Shutdown(context.Background())

	var seen string
	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/segments/1/reveal", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("handler saw trace %q", seen)
	}
	if rec.Header().Get("X-Trace-ID") != seen {
		t.Errorf("unexpected X-Trace-ID %q", rec.Header().Get("X-Trace-ID"))
	}
}
