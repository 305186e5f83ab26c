// Package recorder writes detection events to storage off the scan path.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"spoilerblock/shield/pkg/events"
)

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("recorder is closed")

// Config contains configuration for the recorder.
type Config struct {
	// Enabled turns recording on. A disabled recorder accepts and drops events.
	Enabled bool

	// AsyncBuffer is the size of the write queue. Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds both enqueueing and each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder queues detection events and writes them from a single worker, so
// a slow database never stalls a scan pass. It satisfies suppression.EventSink.
type Recorder struct {
	storage events.Storage
	config  *Config
	queue   chan *events.DetectionEvent
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	closeOnce sync.Once
	mu        sync.Mutex
	written   int64
	failed    int64
}

// NewRecorder creates a recorder over storage and starts its worker.
func NewRecorder(storage events.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		queue:   make(chan *events.DetectionEvent, config.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "events.recorder"),
	}
	r.wg.Add(1)
	go r.worker()

	r.logger.Info("event recorder initialized",
		"enabled", config.Enabled,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// Record assigns an ID and timestamp if missing and queues the event. It
// returns immediately unless the queue is full, in which case it waits up to
// WriteTimeout before dropping the event with a RecorderError.
func (r *Recorder) Record(ctx context.Context, ev *events.DetectionEvent) error {
	if !r.config.Enabled {
		return nil
	}
	select {
	case <-r.done:
		return events.NewRecorderError(ev.ID, ErrClosed)
	default:
	}

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.DetectedAt.IsZero() {
		ev.DetectedAt = time.Now()
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.queue <- ev:
		r.logger.Debug("event queued", "event_id", ev.ID, "segment_id", ev.SegmentID)
		return nil
	case <-timer.C:
		r.logger.Error("event queue full, dropping event",
			"event_id", ev.ID,
			"queue_capacity", r.config.AsyncBuffer,
		)
		return events.NewRecorderError(ev.ID, context.DeadlineExceeded)
	case <-ctx.Done():
		return events.NewRecorderError(ev.ID, ctx.Err())
	case <-r.done:
		return events.NewRecorderError(ev.ID, ErrClosed)
	}
}

// Stats returns how many events were written and how many writes failed.
func (r *Recorder) Stats() (written, failed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.failed
}

// Close drains the queue and stops the worker. It does not close storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down event recorder")
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case ev := <-r.queue:
			r.write(ev)
		case <-r.done:
			for {
				select {
				case ev := <-r.queue:
					r.write(ev)
				default:
					r.logger.Info("event queue drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) write(ev *events.DetectionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, ev)

	r.mu.Lock()
	if err != nil {
		r.failed++
	} else {
		r.written++
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("failed to store event", "event_id", ev.ID, "error", err)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("event recorded",
		"event_id", ev.ID,
		"risk_level", ev.RiskLevel,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow event write",
			"event_id", ev.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}
