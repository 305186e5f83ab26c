package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// PassKey is the context key for the scan pass number.
	PassKey contextKey = "pass"

	// SegmentKey is the context key for a segment ID.
	SegmentKey contextKey = "segment_id"
)

// WithPass adds a scan pass number to the context.
func WithPass(ctx context.Context, pass int64) context.Context {
	return context.WithValue(ctx, PassKey, pass)
}

// GetPass retrieves the scan pass number from the context.
func GetPass(ctx context.Context) (int64, bool) {
	pass, ok := ctx.Value(PassKey).(int64)
	return pass, ok
}

// WithSegment adds a segment ID to the context.
func WithSegment(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, SegmentKey, id)
}

// GetSegment retrieves the segment ID from the context.
func GetSegment(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(SegmentKey).(uint64)
	return id, ok
}

// extractContextFields extracts log fields from context, including the
// trace and span IDs of a recording span.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var fields []slog.Attr
	if pass, ok := GetPass(ctx); ok {
		fields = append(fields, slog.Int64(string(PassKey), pass))
	}
	if id, ok := GetSegment(ctx); ok {
		fields = append(fields, slog.Uint64(string(SegmentKey), id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return fields
}

// ContextHandler adds context fields to every record it handles.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		r = r.Clone()
		r.AddAttrs(fields...)
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
