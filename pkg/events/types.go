package events

import (
	"context"
	"io"
	"time"
)

// DetectionEvent is the record of one segment entering the blocked state.
type DetectionEvent struct {
	ID        string `json:"id"`
	SegmentID uint64 `json:"segmentId"`

	// Source identifies where the segment came from (a fragment name, a file
	// or a page URL).
	Source string `json:"source"`

	IsSpoiler    bool     `json:"isSpoiler"`
	Confidence   int      `json:"confidence"`
	RiskLevel    string   `json:"riskLevel"`
	MatchedTerms []string `json:"matchedTerms"`

	// ContentPreview is the segment text cut to the configured preview length.
	ContentPreview string `json:"contentPreview"`

	ProfileVersion uint64    `json:"profileVersion"`
	DetectedAt     time.Time `json:"detectedAt"`
}

// Query filters detection events.
type Query struct {
	StartTime *time.Time `json:"start_time,omitempty"` // inclusive
	EndTime   *time.Time `json:"end_time,omitempty"`   // inclusive

	Source        string `json:"source,omitempty"`
	RiskLevel     string `json:"risk_level,omitempty"`
	MinConfidence int    `json:"min_confidence,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by DetectedAt: "asc" or "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage persists detection events. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store persists one event.
	Store(ctx context.Context, event *DetectionEvent) error

	// Query returns matching events. An empty result is an empty slice.
	Query(ctx context.Context, query *Query) ([]*DetectionEvent, error)

	// Count returns the number of matching events, ignoring pagination.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching events and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases the backend.
	Close() error
}

// Exporter writes events in some file format.
type Exporter interface {
	Export(ctx context.Context, events []*DetectionEvent, w io.Writer) error
}
