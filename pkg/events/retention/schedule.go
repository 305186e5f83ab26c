package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Start prunes on the configured PruneSchedule until ctx is cancelled or Stop
// is called. An empty schedule does nothing. A prune still running when the
// next one is due makes that run skip.
func (p *Pruner) Start(ctx context.Context) error {
	spec := p.config.PruneSchedule
	if spec == "" {
		p.logger.Debug("no prune schedule, pruning on demand only")
		return nil
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return errors.New("pruning already scheduled")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(schedule, cron.FuncJob(func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	}))
	c.Start()
	p.cron = c
	p.logger.Info("event pruning scheduled", "schedule", spec, "policy", p.config.String())

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop ends scheduled pruning and waits for a prune in progress.
func (p *Pruner) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// NextPruning returns when the next scheduled prune runs, or nil when none
// is scheduled.
func (p *Pruner) NextPruning() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron == nil {
		return nil
	}
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
