package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// ContentKeys are the attribute keys whose values may hold page text.
var ContentKeys = []string{"text", "preview", "content", "content_preview", "snippet"}

// RedactingHandler masks the values of content attributes so a spoiler
// scanned from a page is never written to the logs. Keys match
// case-insensitively, at any group depth.
type RedactingHandler struct {
	next slog.Handler
	keys map[string]bool
}

// NewRedactingHandler wraps next. With no keys, ContentKeys are used.
func NewRedactingHandler(next slog.Handler, keys ...string) *RedactingHandler {
	if len(keys) == 0 {
		keys = ContentKeys
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = true
	}
	return &RedactingHandler{next: next, keys: set}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redacted), keys: h.keys}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = h.redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	if h.keys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, RedactValue(a.Value))
	}
	return a
}

// RedactValue masks a value, keeping only the length of strings as a
// debugging hint.
func RedactValue(v slog.Value) string {
	if v.Kind() == slog.KindString {
		s := v.String()
		if s == "" {
			return ""
		}
		return fmt.Sprintf("*** (%d chars)", utf8.RuneCountInString(s))
	}
	return "***"
}
