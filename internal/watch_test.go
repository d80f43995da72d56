package internal

import (
	"context"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/eqv/internal/equiv"
	"github.com/gnoswap-labs/eqv/internal/rewriter"
)

func TestWatcherHandlesProgramWrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProgram(t, dir, "w.js", "var x = 1;")
	writeProgram(t, dir, "notes.txt", "ignored")

	engine, err := NewEngine(EngineConfig{Rewriter: rewriter.Static{"x = 1"}}, nil)
	require.NoError(t, err)

	results := make(chan *Result, 4)
	w, err := NewWatcher(engine, nil, func(r *Result, err error) {
		assert.NoError(t, err)
		results <- r
	})
	require.NoError(t, err)
	defer w.watcher.Close()
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.handleFileEvent(ctx, fsnotify.Event{Name: dir + "/notes.txt", Op: fsnotify.Write})
	w.handleFileEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Chmod})
	// Two quick writes yield one check.
	w.handleFileEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.handleFileEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})

	select {
	case r := <-results:
		assert.Equal(t, path, r.Filename)
		assert.Equal(t, equiv.Equivalent, r.Report.Verdict)
	case <-time.After(5 * time.Second):
		t.Fatal("no check after write")
	}

	select {
	case r := <-results:
		t.Fatalf("unexpected extra check of %s", r.Filename)
	case <-time.After(3 * debounce):
	}
}

func TestWatcherRunWaitsForChecks(t *testing.T) {
	t.Parallel()
	path := writeProgram(t, t.TempDir(), "w.js", "var x = 1;")

	engine, err := NewEngine(EngineConfig{Rewriter: rewriter.Static{"x = 1"}}, nil)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	w, err := NewWatcher(engine, nil, func(r *Result, err error) {
		close(started)
		<-release
	})
	require.NoError(t, err)

	w.handleFileEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Write})
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("no check after write")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-done:
		t.Fatal("Run returned while a check was still reporting")
	case <-time.After(3 * debounce):
	}

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the check finished")
	}
}

func TestWatcherStopsPendingChecks(t *testing.T) {
	t.Parallel()
	path := writeProgram(t, t.TempDir(), "w.js", "var x = 1;")

	engine, err := NewEngine(EngineConfig{Rewriter: rewriter.Static{"x = 1"}}, nil)
	require.NoError(t, err)

	w, err := NewWatcher(engine, nil, nil)
	require.NoError(t, err)

	w.handleFileEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Write})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))

	w.mu.Lock()
	assert.Empty(t, w.pending)
	w.mu.Unlock()
}

func TestWatcherAddMissing(t *testing.T) {
	t.Parallel()
	engine, err := NewEngine(EngineConfig{Rewriter: rewriter.Static{}}, nil)
	require.NoError(t, err)
	w, err := NewWatcher(engine, nil, nil)
	require.NoError(t, err)
	defer w.watcher.Close()
	assert.Error(t, w.Add("/nonexistent/path"))
}
