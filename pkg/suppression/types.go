package suppression

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/document"
	"spoilerblock/shield/pkg/events"
)

// State is the lifecycle position of a segment.
type State int

const (
	Unscanned State = iota
	Safe
	Blocked
	Revealed
)

func (s State) String() string {
	switch s {
	case Unscanned:
		return "unscanned"
	case Safe:
		return "safe"
	case Blocked:
		return "blocked"
	case Revealed:
		return "revealed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Record is the tracked knowledge about one segment.
type Record struct {
	ID             document.SegmentID
	State          State
	Fingerprint    uint64
	ProfileVersion uint64
	Result         *detection.Result
	UpdatedAt      time.Time
}

// Transition reports what Apply did.
type Transition struct {
	ID   document.SegmentID
	From State
	To   State
}

// Changed reports whether the state moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Presenter makes suppression visible to the user.
type Presenter interface {
	Suppress(ctx context.Context, id document.SegmentID, reason string) error
	Unsuppress(ctx context.Context, id document.SegmentID) error
}

// EventSink receives a detection event each time a segment is blocked.
type EventSink interface {
	Record(ctx context.Context, ev *events.DetectionEvent) error
}

// Metrics observes tracker activity. All methods must be cheap.
type Metrics interface {
	ObserveTransition(to string)
	ObserveReveal()
	ObservePresentationFailure()
}

var (
	// ErrUnknownSegment is returned for segments the tracker has never seen.
	ErrUnknownSegment = errors.New("unknown segment")

	// ErrNotBlocked is returned when revealing a segment that is not blocked.
	ErrNotBlocked = errors.New("segment is not blocked")
)

// SideEffectError reports that a state change was recorded but presenting it
// or emitting its event failed. The new state stands.
type SideEffectError struct {
	ID  document.SegmentID
	Op  string // "suppress", "unsuppress", "record"
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("segment %d: %s failed: %v", e.ID, e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}
