package export

import (
	"context"
	"encoding/json"
	"io"

	"spoilerblock/shield/pkg/events"
)

// JSONExporter writes events as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes evs to w. No events produce "[]".
func (e *JSONExporter) Export(ctx context.Context, evs []*events.DetectionEvent, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return events.NewExportError("json", len(evs), err)
	}
	if evs == nil {
		evs = []*events.DetectionEvent{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(evs); err != nil {
		return events.NewExportError("json", len(evs), err)
	}
	return nil
}
