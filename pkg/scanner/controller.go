package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/suppression"
	"spoilerblock/shield/pkg/telemetry/logging"
	"spoilerblock/shield/pkg/telemetry/tracing"
)

// Segment outcomes reported to Metrics.
const (
	OutcomeScored  = "scored"
	OutcomeCached  = "cached"
	OutcomeSkipped = "skipped"
	OutcomeErrored = "errored"
)

// cachedScorer is implemented by scorers that can answer from memory.
type cachedScorer interface {
	Lookup(text string, p *detection.Profile) (*detection.Result, bool)
}

// Metrics observes controller activity.
type Metrics interface {
	ObservePass(d time.Duration, segments, blocked int)
	ObserveSegment(outcome string)
	ObserveChangeNotification()
}

// ControllerConfig wires a Controller. Document and Tracker are required.
type ControllerConfig struct {
	Document *document.Document
	Tracker  *suppression.Tracker

	// Scorer defaults to the package-level detection engine.
	Scorer detection.Scorer

	// Enumerator defaults to a zero Enumerator. Its Skip field is replaced so
	// revealed segments are never offered for scoring.
	Enumerator *document.Enumerator

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// OnPass, if set, is called after every pass from the scheduler
	// goroutine. Passes never overlap, so neither do calls.
	OnPass func(PassStats)

	Logger  *slog.Logger
	Metrics Metrics
	Tracer  trace.Tracer
}

// PassStats summarizes one pass.
type PassStats struct {
	ProfileVersion uint64
	Segments       int
	Scored         int
	Cached         int
	Skipped        int
	Blocked        int
	Errors         int
	Cancelled      bool
	Duration       time.Duration
}

// Controller is the control surface of the pipeline.
type Controller struct {
	doc     *document.Document
	tracker *suppression.Tracker
	scorer  detection.Scorer
	enum    document.Enumerator
	logger  *slog.Logger
	metrics Metrics
	tracer  trace.Tracer
	sched   *Scheduler
	onPass  func(PassStats)

	profile atomic.Pointer[detection.Profile]
	version atomic.Uint64

	// mu orders scheduling against SetEnabled: a change observed after
	// scanning was disabled never arms the scheduler.
	mu          sync.Mutex
	enabled     bool
	unsubscribe func()

	// manual counts ScanNow calls in flight; their passes run even when
	// scanning is disabled.
	manual atomic.Int32

	lastMu sync.Mutex
	last   PassStats
}

// NewController creates a disabled controller holding the default profile.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Document == nil {
		return nil, errors.New("controller requires a document")
	}
	if cfg.Tracker == nil {
		return nil, errors.New("controller requires a tracker")
	}

	c := &Controller{
		doc:     cfg.Document,
		tracker: cfg.Tracker,
		scorer:  cfg.Scorer,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		onPass:  cfg.OnPass,
	}
	if c.scorer == nil {
		c.scorer = detection.NewEngine(detection.EngineConfig{})
	}
	if cfg.Enumerator != nil {
		c.enum = *cfg.Enumerator
	}
	c.enum.Skip = c.tracker.IsRevealed
	userOnError := c.enum.OnError
	c.enum.OnError = func(id document.SegmentID, err error) {
		c.metrics.ObserveSegment(OutcomeErrored)
		c.logger.Debug("segment vanished during pass", "segment_id", uint64(id), "error", err)
		if userOnError != nil {
			userOnError(id, err)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "scanner")
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.tracer == nil {
		c.tracer = noop.NewTracerProvider().Tracer("scanner")
	}

	initial := detection.DefaultProfile()
	initial.Version = c.version.Add(1)
	c.profile.Store(initial)

	c.sched = NewScheduler(cfg.Debounce, func(ctx context.Context) { c.pass(ctx) })
	return c, nil
}

// SetEnabled attaches or detaches the controller from document changes.
// Enabling runs an immediate pass. Disabling cancels any pending pass and
// waits for a running one to stop; suppressed segments stay suppressed.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	if enabled == c.enabled {
		c.mu.Unlock()
		return
	}
	c.enabled = enabled

	if enabled {
		c.unsubscribe = c.doc.Subscribe(c.onChange)
		c.mu.Unlock()
		c.logger.Info("scanning enabled")
		c.sched.RunNow()
		return
	}

	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.sched.Cancel()
	c.logger.Info("scanning disabled")
}

// Enabled reports whether the controller is observing the document.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// UpdateProfile validates p and makes a normalized copy the active profile.
// When enabled, a full pass follows immediately so changed keywords take
// effect without waiting for new content.
func (c *Controller) UpdateProfile(p *detection.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	next := p.Normalize()
	next.Version = c.version.Add(1)
	c.profile.Store(next)

	c.logger.Info("profile updated",
		"profile_version", next.Version,
		"blocked_keywords", len(next.BlockedKeywords),
		"context_terms", len(next.ContextTerms),
		"sensitivity", string(next.Sensitivity),
	)

	c.mu.Lock()
	if c.enabled {
		c.sched.RunNow()
	}
	c.mu.Unlock()
	return nil
}

// Profile returns the active profile. Callers must not modify it.
func (c *Controller) Profile() *detection.Profile {
	return c.profile.Load()
}

// NotifyChange schedules a pass, as a document change would. It does nothing
// while scanning is disabled.
func (c *Controller) NotifyChange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.metrics.ObserveChangeNotification()
	c.sched.NotifyChange()
}

// Reveal is the user action on a blocked segment.
func (c *Controller) Reveal(ctx context.Context, id document.SegmentID) error {
	ctx, span := c.tracer.Start(ctx, tracing.SpanReveal, trace.WithAttributes(tracing.SegmentAttribute(uint64(id))))
	defer span.End()

	err := c.tracker.Reveal(ctx, id)
	tracing.SetError(span, err)
	return err
}

// ScanNow runs a pass without waiting for the debounce window and blocks
// until it and any follow-up have finished. It works whether or not the
// controller is enabled.
func (c *Controller) ScanNow() PassStats {
	c.manual.Add(1)
	defer c.manual.Add(-1)
	c.sched.RunNow()
	c.sched.Wait()
	return c.LastPass()
}

// LastPass returns the statistics of the most recent pass.
func (c *Controller) LastPass() PassStats {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.last
}

// Passes returns the number of completed passes.
func (c *Controller) Passes() int64 {
	return c.sched.Passes()
}

// Close detaches from the document and stops scheduling for good.
func (c *Controller) Close() error {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.enabled = false
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.sched.Stop()
	return nil
}

func (c *Controller) onChange(ch document.Change) {
	if len(ch.Removed) > 0 {
		c.tracker.Forget(ch.Removed...)
	}
	c.NotifyChange()
}

// pass enumerates the document once under a single profile snapshot.
func (c *Controller) pass(ctx context.Context) {
	if c.manual.Load() == 0 && !c.Enabled() {
		c.logger.Debug("scan pass skipped while disabled")
		return
	}
	profile := c.profile.Load()
	start := time.Now()
	stats := PassStats{ProfileVersion: profile.Version}

	ctx = logging.WithPass(ctx, c.sched.Passes()+1)
	ctx, span := c.tracer.Start(ctx, tracing.SpanScanPass, tracing.PassStart(profile.Version))
	defer span.End()

	for seg := range c.enum.Enumerate(c.doc) {
		if ctx.Err() != nil {
			stats.Cancelled = true
			break
		}
		stats.Segments++

		if !c.tracker.NeedsScan(seg.ID, seg.Text, profile.Version) {
			stats.Skipped++
			c.metrics.ObserveSegment(OutcomeSkipped)
			continue
		}

		res, hit := c.score(seg.Text, profile)
		if ctx.Err() != nil {
			stats.Cancelled = true
			break
		}
		stats.Scored++
		if hit {
			stats.Cached++
			c.metrics.ObserveSegment(OutcomeCached)
		} else {
			c.metrics.ObserveSegment(OutcomeScored)
		}

		tn, err := c.tracker.Apply(ctx, seg, res, profile.Version)
		if err != nil {
			stats.Errors++
			c.logger.WarnContext(logging.WithSegment(ctx, uint64(seg.ID)), "segment side effect failed", "error", err)
		}
		if tn.Changed() && tn.To == suppression.Blocked {
			stats.Blocked++
		}
	}

	stats.Duration = time.Since(start)
	c.metrics.ObservePass(stats.Duration, stats.Segments, stats.Blocked)

	tracing.SetPassAttributes(span, stats.Segments, stats.Scored, stats.Cached, stats.Blocked, stats.Cancelled)
	if stats.Errors > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d side effects failed", stats.Errors))
	}

	c.lastMu.Lock()
	c.last = stats
	c.lastMu.Unlock()

	c.logger.DebugContext(ctx, "scan pass completed",
		"profile_version", stats.ProfileVersion,
		"segments", stats.Segments,
		"scored", stats.Scored,
		"cached", stats.Cached,
		"skipped", stats.Skipped,
		"blocked", stats.Blocked,
		"cancelled", stats.Cancelled,
		"duration_ms", stats.Duration.Milliseconds(),
	)

	if c.onPass != nil {
		c.onPass(stats)
	}
}

// score consults the scorer's memo first so cache hits can be told apart.
func (c *Controller) score(text string, p *detection.Profile) (*detection.Result, bool) {
	if cs, ok := c.scorer.(cachedScorer); ok {
		if r, hit := cs.Lookup(text, p); hit {
			return r, true
		}
	}
	return c.scorer.Score(text, p), false
}

type nopMetrics struct{}

func (nopMetrics) ObservePass(time.Duration, int, int) {}
func (nopMetrics) ObserveSegment(string)               {}
func (nopMetrics) ObserveChangeNotification()          {}
