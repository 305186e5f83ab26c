package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spoilerblock/shield/pkg/events"
)

func resetEventsFlags(t *testing.T) {
	t.Helper()
	orig := eventsFlags
	t.Cleanup(func() { eventsFlags = orig })
	eventsFlags.filter = eventFilter{}
	eventsFlags.limit = 100
	eventsFlags.offset = 0
	eventsFlags.order = "desc"
	eventsFlags.format = "text"
	eventsFlags.exportAs = "json"
	eventsFlags.output = ""
	eventsFlags.progress = false
	eventsFlags.all = false
	eventsFlags.maxAge = 0
	eventsFlags.maxRecords = 0
	eventsFlags.archive = false
}

// seedEvents writes a config with a SQLite log and stores n events, one
// minute apart, alternating between two sources.
func seedEvents(t *testing.T, n int) {
	t.Helper()
	dir := useConfig(t, "")
	writeFile(t, cfgFile, sqliteConfig(dir))

	cfg, err := loadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	store, err := openStorage(&cfg.Events)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Now().Add(-time.Hour)
	for i := range n {
		source, risk := "feed.html", "high"
		if i%2 == 1 {
			source, risk = "comments.html", "medium"
		}
		err := store.Store(context.Background(), &events.DetectionEvent{
			ID:             fmt.Sprintf("ev-%d", i),
			SegmentID:      uint64(i + 1),
			Source:         source,
			IsSpoiler:      true,
			Confidence:     60 + i,
			RiskLevel:      risk,
			MatchedTerms:   []string{"Walter White"},
			ContentPreview: fmt.Sprintf("Walter White dies, take %d", i),
			DetectedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestQueryEvents(t *testing.T) {
	seedEvents(t, 4)
	resetEventsFlags(t)
	eventsFlags.format = "json"
	eventsFlags.filter.source = "feed.html"

	cmd, out, _ := newTestCmd("")
	if err := queryEvents(cmd, nil); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Total  int64                    `json:"total"`
		Events []*events.DetectionEvent `json:"events"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if got.Total != 2 || len(got.Events) != 2 {
		t.Fatalf("got %d of %d events, want 2 of 2", len(got.Events), got.Total)
	}
	if !got.Events[0].DetectedAt.After(got.Events[1].DetectedAt) {
		t.Error("events not newest first")
	}
}

func TestQueryEvents_TextPagination(t *testing.T) {
	seedEvents(t, 5)
	resetEventsFlags(t)
	eventsFlags.limit = 2

	cmd, out, _ := newTestCmd("")
	if err := queryEvents(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Showing 2 of 5 events") {
		t.Errorf("output = %s", out.String())
	}
}

func TestQueryEvents_InvalidFlags(t *testing.T) {
	useConfig(t, "")
	tests := []struct {
		name  string
		setup func()
	}{
		{"bad risk", func() { eventsFlags.filter.risk = "extreme" }},
		{"bad order", func() { eventsFlags.order = "sideways" }},
		{"bad range", func() { eventsFlags.filter.timeRange = "yesterday" }},
		{"since and range", func() {
			eventsFlags.filter.since = time.Hour
			eventsFlags.filter.timeRange = "2026-01-01T00:00:00Z/2026-01-02T00:00:00Z"
		}},
		{"bad format", func() { eventsFlags.format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEventsFlags(t)
			tt.setup()
			cmd, _, _ := newTestCmd("")
			if err := queryEvents(cmd, nil); err == nil {
				t.Error("queryEvents() error = nil")
			}
		})
	}
}

func TestExportEvents(t *testing.T) {
	seedEvents(t, 3)
	resetEventsFlags(t)
	eventsFlags.exportAs = "csv"
	eventsFlags.output = filepath.Join(t.TempDir(), "out.csv")

	cmd, _, errOut := newTestCmd("")
	if err := exportEvents(cmd, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(eventsFlags.output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[1], "ev-0") {
		t.Errorf("first row = %q, want oldest event first", lines[1])
	}
	if !strings.Contains(errOut.String(), "Exported 3 events") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestDeleteEvents(t *testing.T) {
	seedEvents(t, 4)
	resetEventsFlags(t)

	cmd, out, _ := newTestCmd("")
	if err := deleteEvents(cmd, nil); err == nil {
		t.Fatal("delete without filters or --all accepted")
	}

	eventsFlags.filter.source = "comments.html"
	if err := deleteEvents(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Deleted 2 events") {
		t.Errorf("output = %q", out.String())
	}

	eventsFlags.filter = eventFilter{}
	eventsFlags.all = true
	out.Reset()
	if err := deleteEvents(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Deleted 2 events") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPruneEvents(t *testing.T) {
	seedEvents(t, 5)
	resetEventsFlags(t)
	eventsFlags.maxRecords = 2

	cmd, out, _ := newTestCmd("")
	if err := pruneEvents(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Pruned 3 events") {
		t.Errorf("output = %q", out.String())
	}
}

func TestEventFilter_Query(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	f := eventFilter{since: 2 * time.Hour, source: "feed.html", minConfidence: 50}
	q, err := f.query(now)
	if err != nil {
		t.Fatal(err)
	}
	if q.StartTime == nil || !q.StartTime.Equal(now.Add(-2*time.Hour)) || q.EndTime != nil {
		t.Errorf("since window = %v..%v", q.StartTime, q.EndTime)
	}
	if q.Source != "feed.html" || q.MinConfidence != 50 {
		t.Errorf("query = %+v", q)
	}

	f = eventFilter{timeRange: "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"}
	q, err = f.query(now)
	if err != nil {
		t.Fatal(err)
	}
	if q.StartTime.Day() != 1 || q.EndTime.Day() != 2 {
		t.Errorf("range = %v..%v", q.StartTime, q.EndTime)
	}
	if f.empty() || !(&eventFilter{}).empty() {
		t.Error("empty() wrong")
	}
}
