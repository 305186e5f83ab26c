package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDebounce is the quiet period before a pass starts.
const DefaultDebounce = 500 * time.Millisecond

// Scheduler turns a stream of change notifications into scan passes. Bursts
// of notifications collapse into one pass after a quiet period, passes never
// overlap, and notifications that arrive while a pass runs produce exactly
// one follow-up pass.
type Scheduler struct {
	delay time.Duration
	run   func(ctx context.Context)

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	gen     uint64
	busy    bool
	pending bool
	stopped bool
	cancel  context.CancelFunc

	passes atomic.Int64
}

// NewScheduler creates a scheduler that calls run for each pass. A
// non-positive delay means DefaultDebounce.
func NewScheduler(delay time.Duration, run func(ctx context.Context)) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	s := &Scheduler{delay: delay, run: run}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// NotifyChange restarts the quiet period.
func (s *Scheduler) NotifyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// RunNow skips the quiet period: a pass starts immediately, or right after
// the one in progress.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.startLocked()
}

// Cancel drops the pending timer and follow-up, cancels the context of the
// pass in progress and waits for it to return. It must not be called from
// inside a pass.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Stop cancels like Cancel and refuses all further work.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelLocked()
}

// Wait blocks until no pass is running or queued. A debounce timer that has
// not fired yet is not waited for.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.busy || s.pending {
		s.idle.Wait()
	}
}

// Passes returns the number of completed passes.
func (s *Scheduler) Passes() int64 {
	return s.passes.Load()
}

// fire runs when a timer expires. A timer that was stopped too late to
// prevent its callback is recognized by its stale generation.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.startLocked()
}

// startLocked begins a pass or marks one pending. It releases s.mu.
func (s *Scheduler) startLocked() {
	if s.busy {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.busy = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		s.run(ctx)
		s.passes.Add(1)

		s.mu.Lock()
		s.cancel()
		s.cancel = nil
		if !s.pending || s.stopped {
			s.busy = false
			s.pending = false
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		s.pending = false
		ctx, s.cancel = context.WithCancel(context.Background())
		s.mu.Unlock()
	}
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = false
	if s.cancel != nil {
		s.cancel()
	}
	for s.busy {
		s.idle.Wait()
	}
}
