package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce is how long a write settles before the file is checked, so
// several quick writes are treated as one.
const debounce = 100 * time.Millisecond

// Watcher re-checks program files when they are written.
type Watcher struct {
	engine  *Engine
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	report  func(*Result, error)

	mu      sync.Mutex
	pending map[string]*time.Timer
	// checks counts scheduled and running checks.
	checks sync.WaitGroup
}

// NewWatcher creates a watcher. report receives every check outcome.
func NewWatcher(engine *Engine, logger *zap.Logger, report func(*Result, error)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		engine:  engine,
		watcher: w,
		logger:  logger,
		report:  report,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Add watches a file, or every directory below a directory.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		return w.watcher.Add(path)
	}
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error adding directory to watcher: %w", err)
	}
	return nil
}

// Run handles events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			w.checks.Wait()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFileEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !strings.HasSuffix(event.Name, ".js") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[event.Name]; ok && t.Stop() {
		w.checks.Done()
	}
	name := event.Name
	w.checks.Add(1)
	w.pending[name] = time.AfterFunc(debounce, func() {
		defer w.checks.Done()
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()

		w.logger.Debug("file changed", zap.String("file", name))
		result, err := w.engine.Run(ctx, name)
		if w.report != nil {
			w.report(result, err)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, t := range w.pending {
		if t.Stop() {
			w.checks.Done()
		}
		delete(w.pending, name)
	}
}
