package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/eqv/internal/equiv"
	"github.com/gnoswap-labs/eqv/internal/rewriter"
)

type mockRewriter struct {
	mock.Mock
}

func (m *mockRewriter) Rewrite(ctx context.Context, source []byte) ([]string, error) {
	args := m.Called(ctx, source)
	lines, _ := args.Get(0).([]string)
	return lines, args.Error(1)
}

func writeProgram(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestEngineRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	tests := []struct {
		name    string
		source  string
		lines   []string
		verdict equiv.Verdict
		failed  bool
	}{
		{"equivalent", "var x = 1; x = x * 5;", []string{"x = 5"}, equiv.Equivalent, false},
		{"counterexample", "var x = 1;", []string{"x = 2"}, equiv.CounterexampleFound, true},
		{"loop", "var i = 0; while (i < 5) { i = i + 1; }", []string{"i = 5"}, equiv.Equivalent, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine, err := NewEngine(EngineConfig{Rewriter: rewriter.Static(tt.lines)}, nil)
			require.NoError(t, err)

			path := writeProgram(t, dir, tt.name+".js", tt.source)
			result, err := engine.Run(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, path, result.Filename)
			assert.Equal(t, tt.verdict, result.Report.Verdict)
			assert.Equal(t, tt.failed, result.Failed())
			assert.False(t, result.Cached)
		})
	}
}

func TestEngineRunErrors(t *testing.T) {
	t.Parallel()
	engine, err := NewEngine(EngineConfig{Rewriter: rewriter.Static{"x = 1"}}, nil)
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)

	path := writeProgram(t, t.TempDir(), "bad.js", "var = ;")
	_, err = engine.Run(context.Background(), path)
	assert.ErrorContains(t, err, path)
}

func TestEngineCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProgram(t, dir, "p.js", "var x = 1;")

	rw := new(mockRewriter)
	rw.On("Rewrite", mock.Anything, []byte("var x = 1;")).Return([]string{"x = 1"}, nil).Twice()
	rw.On("Rewrite", mock.Anything, []byte("var x = 1;")).Return([]string{"x = 3"}, nil).Once()

	var steps int
	engine, err := NewEngine(EngineConfig{
		Rewriter: rw,
		CacheDir: filepath.Join(dir, "cache"),
		Options:  equiv.Options{OnStep: func(equiv.Step) { steps++ }},
	}, nil)
	require.NoError(t, err)

	first, err := engine.Run(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, steps)

	second, err := engine.Run(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, 1, steps)

	// New rewriter output is a new key.
	third, err := engine.Run(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, equiv.CounterexampleFound, third.Report.Verdict)
	assert.Equal(t, 2, steps)

	rw.AssertExpectations(t)
}

func TestEngineRunSource(t *testing.T) {
	t.Parallel()
	engine, err := NewEngine(EngineConfig{
		Rewriter: rewriter.Static{"x = 1", "y = 1"},
		Options:  equiv.Options{Inject: []string{"y = 100"}},
	}, nil)
	require.NoError(t, err)

	report, err := engine.RunSource(context.Background(), []byte("var x = 1; var y = 1;"))
	require.NoError(t, err)
	assert.Equal(t, equiv.CounterexampleFound, report.Verdict)
	assert.Equal(t, []equiv.Divergence{{Name: "y", Original: 1, Transformed: 100}}, report.Divergences)
}
