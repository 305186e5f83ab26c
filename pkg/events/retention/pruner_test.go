package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/storage"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func seeded(t *testing.T, ages ...time.Duration) *storage.MemoryStorage {
	t.Helper()
	s := storage.NewMemoryStorage()
	for i, age := range ages {
		err := s.Store(context.Background(), &events.DetectionEvent{
			ID:         fmt.Sprintf("ev-%d", i),
			IsSpoiler:  true,
			RiskLevel:  "medium",
			DetectedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func newPruner(s events.Storage, cfg *Config) *Pruner {
	p := NewPruner(s, cfg)
	p.now = func() time.Time { return now }
	return p
}

func TestPruner_ByAge(t *testing.T) {
	day := 24 * time.Hour
	s := seeded(t, 1*day, 10*day, 40*day, 100*day)
	var reported int64 = -1
	p := newPruner(s, &Config{MaxAge: 30 * day, OnPrune: func(n int64) { reported = n }})

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if s.Size() != 2 {
		t.Errorf("remaining = %d, want 2", s.Size())
	}
	if reported != 2 {
		t.Errorf("OnPrune got %d, want 2", reported)
	}
}

func TestPruner_ByCount(t *testing.T) {
	s := seeded(t, 5*time.Minute, 4*time.Minute, 3*time.Minute, 2*time.Minute, 1*time.Minute)
	p := newPruner(s, &Config{MaxRecords: 3})

	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	left, _ := s.Query(context.Background(), &events.Query{SortOrder: "asc"})
	if len(left) != 3 || left[0].ID != "ev-2" {
		t.Errorf("remaining = %v, want the newest three", left)
	}
}

func TestPruner_WithinLimits(t *testing.T) {
	s := seeded(t, time.Minute)
	p := newPruner(s, &Config{MaxAge: time.Hour, MaxRecords: 10})

	deleted, err := p.Prune(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Prune() = %d, %v; want 0, nil", deleted, err)
	}
}

func TestPruner_Archive(t *testing.T) {
	dir := t.TempDir()
	s := seeded(t, time.Minute, 48*time.Hour)
	p := newPruner(s, &Config{MaxAge: 24 * time.Hour, ArchiveBeforeDelete: true, ArchivePath: dir})

	if _, err := p.Prune(context.Background()); err != nil {
		t.Fatal(err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "events-age-*.json"))
	if len(files) != 1 {
		t.Fatalf("archive files = %v, want 1", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("archive file is empty")
	}
}
