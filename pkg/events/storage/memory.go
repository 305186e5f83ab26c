package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"spoilerblock/shield/pkg/events"
	"spoilerblock/shield/pkg/events/query"
)

// MemoryStorage implements events.Storage in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []*events.DetectionEvent
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store keeps a copy of the event.
func (s *MemoryStorage) Store(_ context.Context, event *events.DetectionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, clone(event))
	return nil
}

// Query returns copies of matching events, ordered by detection time.
func (s *MemoryStorage) Query(_ context.Context, q *events.Query) ([]*events.DetectionEvent, error) {
	if err := query.Validate(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := []*events.DetectionEvent{}
	for _, ev := range s.events {
		if matches(ev, q) {
			results = append(results, clone(ev))
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b *events.DetectionEvent) int {
		c := a.DetectedAt.Compare(b.DetectedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.SortOrder != "asc" {
			c = -c
		}
		return c
	})

	limit := q.Limit
	if limit == 0 {
		limit = query.DefaultLimit
	}
	if q.Offset >= len(results) {
		return []*events.DetectionEvent{}, nil
	}
	end := min(q.Offset+limit, len(results))
	return results[q.Offset:end], nil
}

// Count returns the number of matching events.
func (s *MemoryStorage) Count(_ context.Context, q *events.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, ev := range s.events {
		if matches(ev, q) {
			n++
		}
	}
	return n, nil
}

// Delete removes matching events.
func (s *MemoryStorage) Delete(_ context.Context, q *events.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.events)
	s.events = slices.DeleteFunc(s.events, func(ev *events.DetectionEvent) bool {
		return matches(ev, q)
	})
	return int64(before - len(s.events)), nil
}

// Close drops all events.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}

// Size returns the number of stored events.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func matches(ev *events.DetectionEvent, q *events.Query) bool {
	if q.StartTime != nil && ev.DetectedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && ev.DetectedAt.After(*q.EndTime) {
		return false
	}
	if q.Source != "" && ev.Source != q.Source {
		return false
	}
	if q.RiskLevel != "" && ev.RiskLevel != strings.ToLower(q.RiskLevel) {
		return false
	}
	if q.MinConfidence > 0 && ev.Confidence < q.MinConfidence {
		return false
	}
	return true
}

func clone(ev *events.DetectionEvent) *events.DetectionEvent {
	c := *ev
	c.MatchedTerms = slices.Clone(ev.MatchedTerms)
	if c.MatchedTerms == nil {
		c.MatchedTerms = []string{}
	}
	return &c
}
