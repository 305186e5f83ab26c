package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FragmentWatcher mirrors a directory of HTML files into a document. Each
// file becomes a fragment named after its base name: creating or writing a
// file inserts or replaces the fragment, removing or renaming it drops the
// fragment. This is how content "arrives" while a page is open.
type FragmentWatcher struct {
	doc     *Document
	dir     string
	exts    []string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFragmentWatcher creates a watcher over dir. Only files ending in .html or
// .htm are considered; hidden files are ignored.
func NewFragmentWatcher(doc *Document, dir string, logger *slog.Logger) (*FragmentWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &FragmentWatcher{
		doc:     doc,
		dir:     dir,
		exts:    []string{".html", ".htm"},
		watcher: w,
		logger:  logger.With("component", "fragment_watcher"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// LoadExisting appends every matching file already in the directory, in
// name order.
func (fw *FragmentWatcher) LoadExisting() error {
	entries, err := os.ReadDir(fw.dir)
	if err != nil {
		return fmt.Errorf("failed to read fragments dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !fw.matches(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	for _, name := range names {
		if err := fw.load(filepath.Join(fw.dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Watch blocks, applying file events to the document until ctx is cancelled
// or Stop is called.
func (fw *FragmentWatcher) Watch(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer func() {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		close(fw.doneCh)
	}()

	if err := fw.watcher.Add(fw.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", fw.dir, err)
	}
	fw.logger.Info("Fragment watcher started", "dir", fw.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-fw.stopCh:
			return nil
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			fw.handle(ev)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("Fragment watcher error", "error", err)
		}
	}
}

// Stop ends a running Watch and releases the underlying watcher.
func (fw *FragmentWatcher) Stop() error {
	fw.mu.Lock()
	running := fw.running
	fw.mu.Unlock()

	if running {
		close(fw.stopCh)
		<-fw.doneCh
	}
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (fw *FragmentWatcher) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod || !fw.matches(filepath.Base(ev.Name)) {
		return
	}
	fw.logger.Debug("Fragment event", "path", ev.Name, "op", ev.Op.String())

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		err := fw.doc.RemoveFragment(filepath.Base(ev.Name))
		if err != nil && !errors.Is(err, ErrUnknownFragment) {
			fw.logger.Error("Failed to remove fragment", "path", ev.Name, "error", err)
		}
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if err := fw.load(ev.Name); err != nil {
			fw.logger.Error("Failed to load fragment", "path", ev.Name, "error", err)
		}
	}
}

func (fw *FragmentWatcher) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fragment %q: %w", path, err)
	}
	return fw.doc.AppendFragment(filepath.Base(path), string(data))
}

func (fw *FragmentWatcher) matches(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(fw.exts, ext)
}
