// Package check is the public entry point for checking program files:
// configuration loading, engine construction and batch processing.
package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoswap-labs/eqv/internal"
	"github.com/gnoswap-labs/eqv/internal/equiv"
)

// Exit codes of a check run.
const (
	ExitEquivalent     = 0
	ExitCounterexample = 1
	ExitBoundExhausted = 2
)

// Engine checks one file.
type Engine interface {
	Run(ctx context.Context, filePath string) (*internal.Result, error)
}

// Processor checks one file with an engine.
type Processor func(ctx context.Context, engine Engine, filePath string) (*internal.Result, error)

// New loads the configuration at configurationPath and creates an engine.
func New(configurationPath string, logger *zap.Logger) (*internal.Engine, error) {
	config, err := LoadConfig(configurationPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(config, logger)
}

// NewWithConfig creates an engine from a loaded configuration.
func NewWithConfig(config Config, logger *zap.Logger) (*internal.Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return internal.NewEngine(config.EngineConfig(), logger)
}

// ProcessFile checks a single file.
func ProcessFile(ctx context.Context, engine Engine, filePath string) (*internal.Result, error) {
	return engine.Run(ctx, filePath)
}

// ProcessFiles checks every path in order. Results are sorted by file
// name; a file that fails to check yields a Result carrying the error.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	paths []string,
	processor Processor,
) ([]*internal.Result, error) {
	var all []*internal.Result
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		all = append(all, results...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Filename < all[j].Filename })
	return all, nil
}

// ProcessPath checks a file, or every program file below a directory
// with a bounded number of concurrent checks.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	path string,
	processor Processor,
) ([]*internal.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return nil, nil
		}
		return []*internal.Result{runOne(ctx, logger, engine, path, processor)}, nil
	}

	var files []string
	err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && hasDesiredExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", path, err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	var mu sync.Mutex
	results := make([]*internal.Result, 0, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, filePath := range files {
		fp := filePath
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := runOne(gctx, logger, engine, fp, processor)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	sort.Slice(results, func(i, j int) bool { return results[i].Filename < results[j].Filename })
	return results, nil
}

func runOne(ctx context.Context, logger *zap.Logger, engine Engine, path string, processor Processor) *internal.Result {
	result, err := processor(ctx, engine, path)
	if err != nil {
		if logger != nil {
			logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
		}
		return &internal.Result{Filename: path, Err: err}
	}
	return result
}

var desiredExtensions = map[string]bool{
	".js": true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}

// ExitCode maps results to the process exit code: any error or
// counterexample is a failure, otherwise an exhausted bound is reported
// separately from success.
func ExitCode(results []*internal.Result) int {
	code := ExitEquivalent
	for _, r := range results {
		if r.Failed() {
			return ExitCounterexample
		}
		if r.Report != nil && r.Report.Verdict == equiv.BoundExhausted {
			code = ExitBoundExhausted
		}
	}
	return code
}
