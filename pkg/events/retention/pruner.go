// Package retention bounds the detection event log by age and size.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/export"
)

// Config contains configuration for the pruner.
type Config struct {
	// MaxAge is how long events are kept. Zero keeps them forever.
	MaxAge time.Duration

	// MaxRecords caps the number of events kept. Zero is unlimited.
	MaxRecords int64

	// PruneSchedule is a standard cron expression, e.g. "0 3 * * *".
	// Empty disables scheduled pruning.
	PruneSchedule string

	// ArchiveBeforeDelete writes pruned events to ArchivePath as JSON.
	ArchiveBeforeDelete bool

	// ArchivePath is the archive directory.
	ArchivePath string

	// OnPrune, if set, receives the number of events each successful
	// Prune removed.
	OnPrune func(deleted int64)
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAge:        30 * 24 * time.Hour,
		PruneSchedule: "0 3 * * *",
		ArchivePath:   "data/archives/",
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("max_age=%s max_records=%d", c.MaxAge, c.MaxRecords)
}

// Pruner enforces the retention policy on a storage backend.
type Pruner struct {
	storage events.Storage
	config  *Config
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewPruner creates a pruner.
func NewPruner(storage events.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "events.retention"),
		now:     time.Now,
	}
}

// Prune deletes events older than MaxAge, then the oldest events beyond
// MaxRecords. It returns the total removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.MaxAge > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if p.config.OnPrune != nil {
		p.config.OnPrune(total)
	}
	if total > 0 {
		p.logger.Info("event pruning completed",
			"total_deleted", total,
			"max_age", p.config.MaxAge,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no events pruned")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.config.MaxAge)
	q := &events.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, q, "age"); err != nil {
			return 0, events.NewRetentionError(p.config.String(), err)
		}
	}

	deleted, err := p.storage.Delete(ctx, q)
	if err != nil {
		return 0, events.NewRetentionError(p.config.String(), err)
	}
	return deleted, nil
}

// pruneByCount finds the newest event that falls outside the cap and deletes
// it with everything older. Events sharing its timestamp go with it.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &events.Query{})
	if err != nil {
		return 0, events.NewRetentionError(p.config.String(), err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	edge, err := p.storage.Query(ctx, &events.Query{
		SortOrder: "desc",
		Offset:    int(p.config.MaxRecords),
		Limit:     1,
	})
	if err != nil {
		return 0, events.NewRetentionError(p.config.String(), err)
	}
	if len(edge) == 0 {
		return 0, nil
	}

	cutoff := edge[0].DetectedAt
	q := &events.Query{EndTime: &cutoff}

	p.logger.Info("event count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"cutoff", cutoff,
	)

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, q, "count"); err != nil {
			return 0, events.NewRetentionError(p.config.String(), err)
		}
	}

	deleted, err := p.storage.Delete(ctx, q)
	if err != nil {
		return 0, events.NewRetentionError(p.config.String(), err)
	}
	return deleted, nil
}

func (p *Pruner) archive(ctx context.Context, q *events.Query, reason string) error {
	archived := *q
	archived.SortOrder = "asc"
	archived.Limit = 10000

	evs, err := p.storage.Query(ctx, &archived)
	if err != nil {
		return fmt.Errorf("failed to query events for archiving: %w", err)
	}
	if len(evs) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	name := fmt.Sprintf("events-%s-%s.json", reason, p.now().Format("2006-01-02-150405"))
	path := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	if err := export.NewJSONExporter(true).Export(ctx, evs, f); err != nil {
		return fmt.Errorf("failed to export events to archive: %w", err)
	}
	p.logger.Info("events archived", "archive_file", path, "event_count", len(evs))
	return nil
}
