package suppression

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/events"
)

// DefaultPreviewLength caps the text stored with a detection event.
const DefaultPreviewLength = 500

// TrackerConfig configures a Tracker. Every field is optional.
type TrackerConfig struct {
	Presenter Presenter
	Sink      EventSink

	// Source names where a segment came from, for event records.
	Source func(document.SegmentID) string

	// Exists reports whether a segment is still in the document. When set,
	// Apply never starts tracking a segment that is already gone.
	Exists func(document.SegmentID) bool

	// PreviewLength is the event preview cap in characters.
	PreviewLength int

	Logger  *slog.Logger
	Metrics Metrics

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Tracker holds the per-segment state machine. It is safe for concurrent use;
// presenter calls are made under the tracker lock so that a reveal can never
// be overtaken by a late suppress, while event delivery happens outside it.
type Tracker struct {
	mu      sync.Mutex
	records map[document.SegmentID]*Record

	presenter Presenter
	sink      EventSink
	source    func(document.SegmentID) string
	exists    func(document.SegmentID) bool
	preview   int
	logger    *slog.Logger
	metrics   Metrics
	now       func() time.Time
}

// NewTracker creates a tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	t := &Tracker{
		records:   make(map[document.SegmentID]*Record),
		presenter: cfg.Presenter,
		sink:      cfg.Sink,
		source:    cfg.Source,
		exists:    cfg.Exists,
		preview:   cfg.PreviewLength,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
	}
	if t.preview <= 0 {
		t.preview = DefaultPreviewLength
	}
	if t.logger == nil {
		t.logger = slog.Default().With("component", "suppression")
	}
	if t.metrics == nil {
		t.metrics = nopMetrics{}
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Fingerprint identifies segment content.
func Fingerprint(text string) uint64 {
	return xxhash.Sum64String(text)
}

// NeedsScan reports whether the segment with this text must be scored under
// profile version. Settled segments (blocked or revealed with unchanged text,
// safe under the same profile) need no work.
func (t *Tracker) NeedsScan(id document.SegmentID, text string, version uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[id]
	if !ok || r.Fingerprint != Fingerprint(text) {
		return true
	}
	switch r.State {
	case Blocked, Revealed:
		return false
	case Safe:
		return r.ProfileVersion != version
	default:
		return true
	}
}

// Apply records the scoring outcome for seg under profile version and runs the
// side effects of any transition. A nil result leaves the segment Unscanned.
// A segment that is neither tracked nor still in the document is ignored, so a
// pass that outlives a removal cannot bring the segment back.
func (t *Tracker) Apply(ctx context.Context, seg document.Segment, res *detection.Result, version uint64) (Transition, error) {
	fp := Fingerprint(seg.Text)

	t.mu.Lock()
	r, ok := t.records[seg.ID]
	if !ok {
		if t.exists != nil && !t.exists(seg.ID) {
			t.mu.Unlock()
			t.logger.DebugContext(ctx, "segment removed before apply", "segment_id", uint64(seg.ID))
			return Transition{ID: seg.ID, From: Unscanned, To: Unscanned}, nil
		}
		r = &Record{ID: seg.ID, State: Unscanned}
		t.records[seg.ID] = r
	}
	from := r.State

	var effects []error
	if r.Fingerprint != fp {
		// New content under an old handle: start over.
		if r.State == Blocked && t.presenter != nil {
			if err := t.presenter.Unsuppress(ctx, seg.ID); err != nil {
				effects = append(effects, &SideEffectError{ID: seg.ID, Op: "unsuppress", Err: err})
			}
		}
		r.State = Unscanned
		r.Fingerprint = fp
		r.Result = nil
	}

	if res == nil {
		r.UpdatedAt = t.now()
		t.mu.Unlock()
		return Transition{ID: seg.ID, From: from, To: r.State}, errors.Join(effects...)
	}

	var ev *events.DetectionEvent
	switch r.State {
	case Unscanned, Safe:
		if res.IsSpoiler {
			r.State = Blocked
			if t.presenter != nil {
				if err := t.presenter.Suppress(ctx, seg.ID, reason(res)); err != nil {
					t.metrics.ObservePresentationFailure()
					effects = append(effects, &SideEffectError{ID: seg.ID, Op: "suppress", Err: err})
				}
			}
			ev = t.event(seg, res, version)
		} else {
			r.State = Safe
		}
		r.Result = res
		r.ProfileVersion = version
		r.UpdatedAt = t.now()
	case Blocked, Revealed:
		// Settled: a newer profile never unblocks, and a reveal is final
		// for this text.
	}
	to := r.State
	t.mu.Unlock()

	if to != from {
		t.metrics.ObserveTransition(to.String())
		t.logger.DebugContext(ctx, "segment transition",
			"segment_id", uint64(seg.ID),
			"from", from.String(),
			"to", to.String(),
			"profile_version", version,
		)
	}

	if ev != nil && t.sink != nil {
		if err := t.sink.Record(ctx, ev); err != nil {
			effects = append(effects, &SideEffectError{ID: seg.ID, Op: "record", Err: err})
		}
	}

	return Transition{ID: seg.ID, From: from, To: to}, errors.Join(effects...)
}

// Reveal moves a blocked segment to Revealed and unsuppresses it. Revealing
// an already revealed segment does nothing.
func (t *Tracker) Reveal(ctx context.Context, id document.SegmentID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[id]
	if !ok {
		return ErrUnknownSegment
	}
	switch r.State {
	case Revealed:
		return nil
	case Blocked:
	default:
		return ErrNotBlocked
	}

	r.State = Revealed
	r.UpdatedAt = t.now()
	t.metrics.ObserveReveal()
	t.metrics.ObserveTransition(Revealed.String())
	t.logger.InfoContext(ctx, "segment revealed", "segment_id", uint64(id))

	if t.presenter != nil {
		if err := t.presenter.Unsuppress(ctx, id); err != nil {
			t.metrics.ObservePresentationFailure()
			return &SideEffectError{ID: id, Op: "unsuppress", Err: err}
		}
	}
	return nil
}

// IsRevealed reports whether the segment is revealed with exactly this text.
func (t *Tracker) IsRevealed(id document.SegmentID, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[id]
	return ok && r.State == Revealed && r.Fingerprint == Fingerprint(text)
}

// State returns the state of a segment; unknown segments are Unscanned.
func (t *Tracker) State(id document.SegmentID) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.records[id]; ok {
		return r.State
	}
	return Unscanned
}

// Lookup returns a copy of the record for id.
func (t *Tracker) Lookup(id document.SegmentID) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Forget drops segments that no longer exist.
func (t *Tracker) Forget(ids ...document.SegmentID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		delete(t.records, id)
	}
}

// Counts returns the number of tracked segments per state.
func (t *Tracker) Counts() map[State]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[State]int, 4)
	for _, r := range t.records {
		counts[r.State]++
	}
	return counts
}

func (t *Tracker) event(seg document.Segment, res *detection.Result, version uint64) *events.DetectionEvent {
	source := ""
	if t.source != nil {
		source = t.source(seg.ID)
	}
	return &events.DetectionEvent{
		SegmentID:      uint64(seg.ID),
		Source:         source,
		IsSpoiler:      res.IsSpoiler,
		Confidence:     res.Confidence,
		RiskLevel:      string(res.RiskLevel),
		MatchedTerms:   append([]string{}, res.MatchedTerms...),
		ContentPreview: events.TruncatePreview(seg.Text, t.preview),
		ProfileVersion: version,
		DetectedAt:     t.now(),
	}
}

// reason is the human readable cause shown on a suppressed segment.
func reason(res *detection.Result) string {
	terms := make([]string, 0, len(res.MatchedTerms))
	for _, term := range res.MatchedTerms {
		if term == detection.ActionPatternMarker {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return string(res.RiskLevel) + " risk"
	}
	return strings.Join(terms, ", ")
}

type nopMetrics struct{}

func (nopMetrics) ObserveTransition(string)    {}
func (nopMetrics) ObserveReveal()              {}
func (nopMetrics) ObservePresentationFailure() {}
