package check

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/eqv/internal"
	"github.com/gnoswap-labs/eqv/internal/encode"
	"github.com/gnoswap-labs/eqv/internal/equiv"
	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/rewriter"
	"github.com/gnoswap-labs/eqv/internal/solver"
	"github.com/gnoswap-labs/eqv/internal/solver/satbv"
	"github.com/gnoswap-labs/eqv/internal/solver/smtlib"
)

// DefaultConfigPath is the configuration file written by `eqv init`.
const DefaultConfigPath = ".eqv.yaml"

// Solver backends.
const (
	BackendSAT    = "sat"
	BackendSMTLib = "smtlib"
)

// Config is the checker configuration.
type Config struct {
	Name     string         `yaml:"name" toml:"name"`
	Unroll   UnrollConfig   `yaml:"unroll" toml:"unroll"`
	Width    int            `yaml:"width" toml:"width"`
	Solver   SolverConfig   `yaml:"solver" toml:"solver"`
	Rewriter RewriterConfig `yaml:"rewriter" toml:"rewriter"`
	// Inject lines are appended to the rewriter output.
	Inject  []string    `yaml:"inject,omitempty" toml:"inject"`
	Cache   CacheConfig `yaml:"cache" toml:"cache"`
	DebugIR bool        `yaml:"debug_ir" toml:"debug_ir"`
}

type UnrollConfig struct {
	Initial      int `yaml:"initial" toml:"initial"`
	MaxDoublings int `yaml:"max_doublings" toml:"max_doublings"`
}

type SolverConfig struct {
	Backend string   `yaml:"backend" toml:"backend"`
	Command string   `yaml:"command,omitempty" toml:"command"`
	Args    []string `yaml:"args,omitempty" toml:"args"`
}

type RewriterConfig struct {
	Command string   `yaml:"command" toml:"command"`
	Args    []string `yaml:"args,omitempty" toml:"args"`
	Prefix  string   `yaml:"prefix" toml:"prefix"`
	// Output names a file holding pre-generated rewriter output.
	Output string `yaml:"output,omitempty" toml:"output"`
}

type CacheConfig struct {
	Dir    string `yaml:"dir,omitempty" toml:"dir"`
	MaxAge string `yaml:"max_age,omitempty" toml:"max_age"`
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() Config {
	return Config{
		Name: "eqv",
		Unroll: UnrollConfig{
			Initial:      encode.DefaultBound,
			MaxDoublings: equiv.DefaultMaxDoublings,
		},
		Width:  equiv.DefaultWidth,
		Solver: SolverConfig{Backend: BackendSAT},
		Rewriter: RewriterConfig{
			Command: rewriter.DefaultCommand,
			Prefix:  rewriter.DefaultPrefix,
		},
	}
}

// LoadConfig reads a configuration file over the defaults. Files ending
// in .toml are decoded as TOML, anything else as YAML. An empty path
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return config, fmt.Errorf("error parsing %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return config, config.Validate()
}

// Validate checks value ranges and names.
func (c Config) Validate() error {
	if c.Unroll.Initial < 1 {
		return fmt.Errorf("unroll.initial must be positive, got %d", c.Unroll.Initial)
	}
	if c.Width < 1 || c.Width > formula.MaxWidth {
		return fmt.Errorf("width must be between 1 and %d, got %d", formula.MaxWidth, c.Width)
	}
	switch c.Solver.Backend {
	case "", BackendSAT, BackendSMTLib:
	default:
		return fmt.Errorf("unknown solver backend %q", c.Solver.Backend)
	}
	if c.Cache.MaxAge != "" {
		if _, err := time.ParseDuration(c.Cache.MaxAge); err != nil {
			return fmt.Errorf("cache.max_age: %w", err)
		}
	}
	return nil
}

// NewSolver builds the configured backend.
func (c Config) NewSolver() solver.Solver {
	if c.Solver.Backend == BackendSMTLib {
		return smtlib.New(c.Solver.Command, c.Solver.Args...)
	}
	return satbv.New()
}

// NewRewriter builds the configured rewriter.
func (c Config) NewRewriter() rewriter.Rewriter {
	if c.Rewriter.Output != "" {
		return rewriter.File{Path: c.Rewriter.Output}
	}
	return rewriter.NewCommand(c.Rewriter.Command, c.Rewriter.Args...)
}

// Options converts the configuration to checker options.
func (c Config) Options() equiv.Options {
	maxDoublings := c.Unroll.MaxDoublings
	if maxDoublings == 0 {
		// Zero in a file means no refinement.
		maxDoublings = -1
	}
	return equiv.Options{
		InitialBound: c.Unroll.Initial,
		MaxDoublings: maxDoublings,
		Width:        c.Width,
		Prefix:       c.Rewriter.Prefix,
		Inject:       c.Inject,
		Solver:       c.NewSolver(),
		DebugIR:      c.DebugIR,
	}
}

// EngineConfig converts the configuration to an engine configuration.
func (c Config) EngineConfig() internal.EngineConfig {
	var maxAge time.Duration
	if c.Cache.MaxAge != "" {
		maxAge, _ = time.ParseDuration(c.Cache.MaxAge)
	}
	return internal.EngineConfig{
		Options:     c.Options(),
		Rewriter:    c.NewRewriter(),
		CacheDir:    c.Cache.Dir,
		CacheMaxAge: maxAge,
		Fingerprint: c.Fingerprint(),
	}
}

// Fingerprint identifies every setting that can change a verdict.
func (c Config) Fingerprint() string {
	data, err := yaml.Marshal(struct {
		Unroll   UnrollConfig
		Width    int
		Solver   SolverConfig
		Rewriter RewriterConfig
		Inject   []string
	}{c.Unroll, c.Width, c.Solver, c.Rewriter, c.Inject})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", md5.Sum(data))
}
