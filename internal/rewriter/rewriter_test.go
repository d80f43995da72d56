package rewriter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/eqv/internal/syntax"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, command string, args ...string) ([]byte, error) {
	called := m.Called(ctx, command, args)
	out, _ := called.Get(0).([]byte)
	return out, called.Error(1)
}

func TestCommandRewrite(t *testing.T) {
	t.Parallel()
	source := []byte("var x = 1; x = x + 1;")

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, "prepack", mock.MatchedBy(func(args []string) bool {
		if len(args) != 2 || args[0] != "--compatibility" {
			return false
		}
		data, err := os.ReadFile(args[1])
		return err == nil && string(data) == string(source) && strings.HasSuffix(args[1], ".js")
	})).Return([]byte("x = 2;\n\n  y = 3;\n"), nil)

	rw := NewCommand("", "--compatibility").WithRunner(runner)
	lines, err := rw.Rewrite(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 2;", "y = 3;"}, lines)
	runner.AssertExpectations(t)
}

func TestCommandRewriteFailure(t *testing.T) {
	t.Parallel()
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, "rw", mock.Anything).Return(nil, errors.New("exit status 1"))

	_, err := NewCommand("rw").WithRunner(runner).Rewrite(context.Background(), []byte("var x;"))
	assert.ErrorContains(t, err, "exit status 1")
}

func TestFileRewrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.js")
	require.NoError(t, os.WriteFile(path, []byte("x = 1;\r\ny = x;\n"), 0o644))

	lines, err := File{Path: path}.Rewrite(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 1;", "y = x;"}, lines)

	_, err = File{Path: filepath.Join(t.TempDir(), "missing")}.Rewrite(context.Background(), nil)
	assert.Error(t, err)
}

func TestStaticRewrite(t *testing.T) {
	t.Parallel()
	s := Static{"x = 1"}
	lines, err := s.Rewrite(context.Background(), nil)
	require.NoError(t, err)
	lines[0] = "changed"
	assert.Equal(t, "x = 1", s[0])
}

func TestReplay(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		lines  []string
		prefix string
		want   string
	}{
		{
			name:  "declares once",
			lines: []string{"x = 1;", "y = x + 2;", "x = y * x;"},
			want:  "var pp.x;\nvar pp.y;\npp.x = 1;\npp.y = (pp.x + 2);\npp.x = (pp.y * pp.x);\n",
		},
		{
			name:   "read before assignment",
			lines:  []string{"a = -b", "b = 1"},
			prefix: "t",
			want:   "var t.a;\nvar t.b;\nt.a = (-t.b);\nt.b = 1;\n",
		},
		{
			name:  "declaration with initializer",
			lines: []string{"var z = 5;"},
			want:  "var pp.z;\npp.z = 5;\n",
		},
		{
			name:  "several statements on a line",
			lines: []string{"x = 1; y = 2;"},
			want:  "var pp.x;\nvar pp.y;\npp.x = 1;\npp.y = 2;\n",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prog, err := Replay(tt.lines, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, syntax.Format(prog))
		})
	}
}

func TestReplayRejectsNonAssignments(t *testing.T) {
	t.Parallel()
	for _, line := range []string{"if (x) { y = 1 }", "x + 1;", "var x;", "x = ("} {
		_, err := Replay([]string{line}, "")
		assert.Error(t, err, line)
	}
}

func TestSplitLines(t *testing.T) {
	t.Parallel()
	assert.Nil(t, SplitLines("\n \n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines(" a \nb"))
}
