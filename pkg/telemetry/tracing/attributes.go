package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanScanPass = "scan.pass"
	SpanReveal   = "segment.reveal"
)

// Attribute keys set on scan spans.
const (
	AttrProfileVersion = "profile_version"
	AttrSegments       = "segments"
	AttrScored         = "scored"
	AttrCached         = "cached"
	AttrBlocked        = "blocked"
	AttrCancelled      = "cancelled"
	AttrSegmentID      = "segment_id"
)

// PassStart returns the start option for a scan pass span.
func PassStart(profileVersion uint64) trace.SpanStartOption {
	return trace.WithAttributes(attribute.Int64(AttrProfileVersion, int64(profileVersion)))
}

// SetPassAttributes records the outcome of a pass on its span.
func SetPassAttributes(span trace.Span, segments, scored, cached, blocked int, cancelled bool) {
	span.SetAttributes(
		attribute.Int(AttrSegments, segments),
		attribute.Int(AttrScored, scored),
		attribute.Int(AttrCached, cached),
		attribute.Int(AttrBlocked, blocked),
		attribute.Bool(AttrCancelled, cancelled),
	)
}

// SegmentAttribute identifies a segment on a span.
func SegmentAttribute(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrSegmentID, int64(id))
}
