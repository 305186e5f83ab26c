package profile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"spoilerblock/shield/pkg/detection"
	"spoilerblock/shield/pkg/scanner"
)

// DefaultReloadDelay is the quiet period after the last file event.
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads a profile file when it changes. Editors often replace a
// file rather than write it in place, so the parent directory is watched and
// events are filtered by name. A file that fails to load is logged and the
// previous profile stays in effect.
type Watcher struct {
	path     string
	onChange func(*detection.Profile) error
	watcher  *fsnotify.Watcher
	reload   *scanner.Scheduler
	logger   *slog.Logger

	mu      sync.Mutex
	current *detection.Profile
	failed  int
	lastErr error
}

// NewWatcher creates a watcher. onChange receives every successfully loaded
// profile; its error is logged.
func NewWatcher(path string, delay time.Duration, onChange func(*detection.Profile) error, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		watcher:  fw,
		logger:   logger.With("component", "profile_watcher"),
	}
	w.reload = scanner.NewScheduler(delay, func(context.Context) { w.Reload() })
	return w, nil
}

// Reload reads the file now. A profile counts as loaded only once onChange
// accepts it; on any failure the previous profile is kept and the error is
// returned.
func (w *Watcher) Reload() error {
	p, err := Load(w.path)
	if err != nil {
		w.fail(err)
		w.logger.Error("Profile reload failed, keeping previous profile", "path", w.path, "error", err)
		return err
	}

	if w.onChange != nil {
		if err := w.onChange(p); err != nil {
			w.fail(err)
			w.logger.Error("Profile rejected", "path", w.path, "error", err)
			return err
		}
	}

	w.mu.Lock()
	w.current = p
	w.lastErr = nil
	w.mu.Unlock()

	w.logger.Info("Profile loaded", "path", w.path, "blocked_keywords", len(p.BlockedKeywords))
	return nil
}

func (w *Watcher) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failed++
	w.lastErr = err
}

// Current returns the last profile that was loaded and accepted, or nil.
func (w *Watcher) Current() *detection.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Failures returns how many reloads failed.
func (w *Watcher) Failures() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

// LastError returns the error of the latest reload, or nil if it succeeded.
func (w *Watcher) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Watch blocks until ctx is cancelled, reloading after changes settle.
func (w *Watcher) Watch(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	w.logger.Info("Profile watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("Profile file event", "op", ev.Op.String())
			w.reload.NotifyChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Profile watcher error", "error", err)
		}
	}
}

// Close stops pending reloads and releases the watcher.
func (w *Watcher) Close() error {
	w.reload.Stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}
