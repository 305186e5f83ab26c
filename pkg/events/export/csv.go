package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"spoilerblock/shield/pkg/events"
)

// CSVExporter writes events as CSV. Matched terms are joined with ";".
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var header = []string{
	"id", "segment_id", "source", "is_spoiler", "confidence", "risk_level",
	"matched_terms", "content_preview", "profile_version", "detected_at",
}

// Export writes evs to w.
func (e *CSVExporter) Export(ctx context.Context, evs []*events.DetectionEvent, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return events.NewExportError("csv", len(evs), err)
		}
	}
	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return events.NewExportError("csv", len(evs), err)
		}
		if err := writer.Write(row(ev)); err != nil {
			return events.NewExportError("csv", len(evs), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return events.NewExportError("csv", len(evs), err)
	}
	return nil
}

func row(ev *events.DetectionEvent) []string {
	detected := ""
	if !ev.DetectedAt.IsZero() {
		detected = ev.DetectedAt.UTC().Format(time.RFC3339Nano)
	}
	return []string{
		ev.ID,
		strconv.FormatUint(ev.SegmentID, 10),
		ev.Source,
		strconv.FormatBool(ev.IsSpoiler),
		strconv.Itoa(ev.Confidence),
		ev.RiskLevel,
		strings.Join(ev.MatchedTerms, ";"),
		ev.ContentPreview,
		strconv.FormatUint(ev.ProfileVersion, 10),
		detected,
	}
}
