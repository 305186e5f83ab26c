// Package export writes detection events as JSON or CSV.
package export

import (
	"fmt"
	"strings"

	"spoilerblock/shield/pkg/events"
)

// New returns the exporter for format ("json" or "csv").
func New(format string, pretty bool) (events.Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONExporter(pretty), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, events.NewExportError(format, 0, fmt.Errorf("unsupported format %q", format))
	}
}
