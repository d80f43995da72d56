package check

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/eqv/internal"
	"github.com/gnoswap-labs/eqv/internal/equiv"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Run(ctx context.Context, filePath string) (*internal.Result, error) {
	args := m.Called(ctx, filePath)
	result, _ := args.Get(0).(*internal.Result)
	return result, args.Error(1)
}

func verdict(name string, v equiv.Verdict) *internal.Result {
	return &internal.Result{Filename: name, Report: &equiv.Report{Verdict: v}}
}

func createFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(paths[i]), 0o755))
		require.NoError(t, os.WriteFile(paths[i], []byte("var x = 1;"), 0o644))
	}
	return paths
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := createFiles(t, dir, "b.js", "a.js", "sub/c.js", "readme.md")

	engine := new(mockEngine)
	engine.On("Run", mock.Anything, paths[0]).Return(verdict(paths[0], equiv.Equivalent), nil)
	engine.On("Run", mock.Anything, paths[1]).Return(verdict(paths[1], equiv.CounterexampleFound), nil)
	engine.On("Run", mock.Anything, paths[2]).Return(nil, errors.New("parse error"))

	logger, _ := zap.NewDevelopment()
	results, err := ProcessPath(context.Background(), logger, engine, dir, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, paths[1], results[0].Filename)
	assert.Equal(t, paths[0], results[1].Filename)
	assert.Equal(t, paths[2], results[2].Filename)
	assert.EqualError(t, results[2].Err, "parse error")

	engine.AssertExpectations(t)
	engine.AssertNotCalled(t, "Run", mock.Anything, paths[3])
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := createFiles(t, dir, "p.js", "skip.txt")

	engine := new(mockEngine)
	engine.On("Run", mock.Anything, paths[0]).Return(verdict(paths[0], equiv.Equivalent), nil)

	results, err := ProcessPath(context.Background(), nil, engine, paths[0], ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, equiv.Equivalent, results[0].Report.Verdict)

	results, err = ProcessPath(context.Background(), nil, engine, paths[1], ProcessFile)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = ProcessPath(context.Background(), nil, engine, filepath.Join(dir, "missing"), ProcessFile)
	assert.Error(t, err)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := createFiles(t, dir, "z.js", "y.js")

	engine := new(mockEngine)
	for _, p := range paths {
		engine.On("Run", mock.Anything, p).Return(verdict(p, equiv.Equivalent), nil)
	}

	results, err := ProcessFiles(context.Background(), nil, engine, paths, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, paths[1], results[0].Filename)

	_, err = ProcessFiles(context.Background(), nil, engine, []string{filepath.Join(dir, "nope.js")}, ProcessFile)
	assert.Error(t, err)
}

func TestProcessPathCancelled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	createFiles(t, dir, "a.js")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ProcessPath(ctx, nil, new(mockEngine), dir, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		results []*internal.Result
		want    int
	}{
		{"empty", nil, ExitEquivalent},
		{"equivalent", []*internal.Result{verdict("a", equiv.Equivalent)}, ExitEquivalent},
		{"exhausted", []*internal.Result{verdict("a", equiv.Equivalent), verdict("b", equiv.BoundExhausted)}, ExitBoundExhausted},
		{"counterexample wins", []*internal.Result{verdict("a", equiv.BoundExhausted), verdict("b", equiv.CounterexampleFound)}, ExitCounterexample},
		{"error", []*internal.Result{{Filename: "a", Err: errors.New("x")}}, ExitCounterexample},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.results))
		})
	}
}

func TestNewEndToEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("x = 6\n"), 0o644))
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rewriter:\n  output: "+out+"\n"), 0o644))
	paths := createFiles(t, dir, "p.js")
	require.NoError(t, os.WriteFile(paths[0], []byte("var x = 2; x = x * 3;"), 0o644))

	engine, err := New(cfgPath, nil)
	require.NoError(t, err)
	results, err := ProcessFiles(context.Background(), nil, engine, paths, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, equiv.Equivalent, results[0].Report.Verdict)
	assert.Equal(t, ExitEquivalent, ExitCode(results))
}
