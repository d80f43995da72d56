package internal

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/eqv/internal/equiv"
	"github.com/gnoswap-labs/eqv/internal/rewriter"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	Options  equiv.Options
	Rewriter rewriter.Rewriter
	// CacheDir enables the verdict cache when set.
	CacheDir    string
	CacheMaxAge time.Duration
	// Fingerprint identifies the configuration in cache keys.
	Fingerprint string
}

// Engine checks program files.
type Engine struct {
	checker     *equiv.Checker
	rewriter    rewriter.Rewriter
	cache       *Cache
	fingerprint string
	logger      *zap.Logger
}

// NewEngine creates an engine. A nil rewriter means the default command
// rewriter.
func NewEngine(cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := &Engine{
		rewriter:    cfg.Rewriter,
		fingerprint: cfg.Fingerprint,
		logger:      logger,
	}
	if engine.rewriter == nil {
		engine.rewriter = rewriter.NewCommand(rewriter.DefaultCommand)
	}

	opts := cfg.Options
	onStep := opts.OnStep
	opts.OnStep = func(s equiv.Step) {
		logger.Debug("refinement step",
			zap.Int("bound", s.Bound),
			zap.Int("clauses", s.Clauses),
			zap.String("status", s.Status),
			zap.Strings("open", s.Open),
		)
		if onStep != nil {
			onStep(s)
		}
	}
	engine.checker = equiv.New(opts)

	if cfg.CacheDir != "" {
		cache, err := NewCache(cfg.CacheDir, Version)
		if err != nil {
			return nil, err
		}
		if cfg.CacheMaxAge > 0 {
			cache.SetMaxAge(cfg.CacheMaxAge)
		}
		engine.cache = cache
	}
	return engine, nil
}

// Run checks one file. A cached verdict is reused when the program, its
// rewriter output and the configuration are unchanged.
func (e *Engine) Run(ctx context.Context, filename string) (*Result, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}

	lines, err := e.rewriter.Rewrite(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("error rewriting %s: %w", filename, err)
	}

	key := e.cacheKey(source, lines)
	if e.cache != nil {
		if report, ok := e.cache.Get(filename, key); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			return &Result{Filename: filename, Report: report, Cached: true}, nil
		}
	}

	report, err := e.checker.CheckLines(ctx, string(source), lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	e.logger.Debug("checked",
		zap.String("file", filename),
		zap.Stringer("verdict", report.Verdict),
		zap.Int("bound", report.Bound),
	)

	if e.cache != nil {
		if err := e.cache.Set(filename, key, report); err != nil {
			e.logger.Warn("failed to cache verdict", zap.String("file", filename), zap.Error(err))
		}
	}
	return &Result{Filename: filename, Report: report}, nil
}

// RunSource checks a program held in memory. The cache is not used.
func (e *Engine) RunSource(ctx context.Context, source []byte) (*equiv.Report, error) {
	return e.checker.CheckSource(ctx, string(source), e.rewriter)
}

func (e *Engine) cacheKey(source []byte, lines []string) string {
	h := md5.New()
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(lines, "\n")))
	h.Write([]byte{0})
	h.Write([]byte(e.fingerprint))
	return fmt.Sprintf("%x", h.Sum(nil))
}
