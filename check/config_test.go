package check

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/eqv/internal/rewriter"
	"github.com/gnoswap-labs/eqv/internal/solver/satbv"
	"github.com/gnoswap-labs/eqv/internal/solver/smtlib"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.Equal(t, 2, config.Unroll.Initial)
	assert.Equal(t, 6, config.Unroll.MaxDoublings)
	assert.Equal(t, 32, config.Width)
	assert.Equal(t, "prepack", config.Rewriter.Command)
	assert.Equal(t, "pp", config.Rewriter.Prefix)
}

func TestLoadConfigYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "eqv.yaml", `
name: custom
unroll:
  initial: 4
width: 16
solver:
  backend: smtlib
  command: cvc5
  args: ["--lang", "smt2"]
inject:
  - y = 100
cache:
  dir: .cache
  max_age: 2h
debug_ir: true
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", config.Name)
	assert.Equal(t, 4, config.Unroll.Initial)
	assert.Equal(t, 6, config.Unroll.MaxDoublings)
	assert.Equal(t, 16, config.Width)
	assert.Equal(t, SolverConfig{Backend: BackendSMTLib, Command: "cvc5", Args: []string{"--lang", "smt2"}}, config.Solver)
	assert.Equal(t, []string{"y = 100"}, config.Inject)
	assert.True(t, config.DebugIR)

	assert.IsType(t, &smtlib.Solver{}, config.NewSolver())
	ec := config.EngineConfig()
	assert.Equal(t, 2*time.Hour, ec.CacheMaxAge)
	assert.Equal(t, ".cache", ec.CacheDir)
	assert.Equal(t, 16, ec.Options.Width)
	assert.True(t, ec.Options.DebugIR)
}

func TestLoadConfigTOML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "eqv.toml", `
name = "from-toml"
width = 8

[unroll]
initial = 3
max_doublings = 0

[rewriter]
output = "out.txt"
prefix = "t"
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-toml", config.Name)
	assert.Equal(t, 3, config.Unroll.Initial)
	assert.Equal(t, 0, config.Unroll.MaxDoublings)
	assert.Equal(t, 8, config.Width)
	assert.Equal(t, rewriter.File{Path: "out.txt"}, config.NewRewriter())
	assert.IsType(t, &satbv.Solver{}, config.NewSolver())

	opts := config.Options()
	assert.Equal(t, -1, opts.MaxDoublings)
	assert.Equal(t, "t", opts.Prefix)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad yaml", "c.yaml", "unroll: [1"},
		{"bad toml", "c.toml", "unroll = ["},
		{"zero bound", "c.yaml", "unroll:\n  initial: 0\n"},
		{"wide", "c.yaml", "width: 128\n"},
		{"backend", "c.yaml", "solver:\n  backend: magic\n"},
		{"max age", "c.yaml", "cache:\n  max_age: soon\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()
	base := DefaultConfig()
	assert.Equal(t, base.Fingerprint(), DefaultConfig().Fingerprint())

	renamed := DefaultConfig()
	renamed.Name = "other"
	renamed.DebugIR = true
	assert.Equal(t, base.Fingerprint(), renamed.Fingerprint())

	wider := DefaultConfig()
	wider.Width = 16
	assert.NotEqual(t, base.Fingerprint(), wider.Fingerprint())

	injected := DefaultConfig()
	injected.Inject = []string{"y = 1"}
	assert.NotEqual(t, base.Fingerprint(), injected.Fingerprint())
}
