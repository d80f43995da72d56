package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/eqv/check"
	"github.com/gnoswap-labs/eqv/formatter"
)

var (
	checkJSONOutput bool
	outPath         string

	bound          int
	maxDoublings   int
	solverBackend  string
	rewriterCmd    string
	rewriterOutput string
	prefix         string
	inject         []string
	debugIR        bool
	cacheDir       string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check that the rewriter preserves the final global values of each program",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		config, err := loadConfig()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		applyOverrides(cmd, &config)

		engine, err := check.NewWithConfig(config, logger)
		if err != nil {
			logger.Fatal("Failed to initialize check engine", zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		os.Exit(runCheckProcess(ctx, logger, engine, args, checkJSONOutput, outPath, os.Stdout))
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSONOutput, "json", false, "Output verdicts in JSON format")
	checkCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	addCheckFlags(checkCmd)
}

// addCheckFlags registers the flags that override configuration values.
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&bound, "bound", 0, "Initial loop unroll bound")
	cmd.Flags().IntVar(&maxDoublings, "max-doublings", 0, "Maximum number of bound doublings (0 disables refinement)")
	cmd.Flags().StringVar(&solverBackend, "solver", "", "Solver backend: sat or smtlib")
	cmd.Flags().StringVar(&rewriterCmd, "rewriter", "", "Rewriter command run on each program")
	cmd.Flags().StringVar(&rewriterOutput, "rewriter-output", "", "File holding pre-generated rewriter output")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Variable prefix of the rewritten program")
	cmd.Flags().StringArrayVar(&inject, "inject", nil, "Extra line appended to the rewriter output (repeatable)")
	cmd.Flags().BoolVar(&debugIR, "debug-ir", false, "Include the clauses of both programs in the report")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory of the verdict cache")
}

func applyOverrides(cmd *cobra.Command, config *check.Config) {
	flags := cmd.Flags()
	if flags.Changed("bound") {
		config.Unroll.Initial = bound
	}
	if flags.Changed("max-doublings") {
		config.Unroll.MaxDoublings = maxDoublings
	}
	if flags.Changed("solver") {
		config.Solver.Backend = solverBackend
	}
	if flags.Changed("rewriter") {
		config.Rewriter.Command = rewriterCmd
	}
	if flags.Changed("rewriter-output") {
		config.Rewriter.Output = rewriterOutput
	}
	if flags.Changed("prefix") {
		config.Rewriter.Prefix = prefix
	}
	if flags.Changed("inject") {
		config.Inject = append(config.Inject, inject...)
	}
	if flags.Changed("debug-ir") {
		config.DebugIR = debugIR
	}
	if flags.Changed("cache-dir") {
		config.Cache.Dir = cacheDir
	}
}

func runCheckProcess(ctx context.Context, logger *zap.Logger, engine check.Engine, paths []string, isJSON bool, jsonOutput string, w io.Writer) int {
	results, err := check.ProcessFiles(ctx, logger, engine, paths, check.ProcessFile)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		return check.ExitCounterexample
	}

	if !isJSON {
		fmt.Fprint(w, formatter.GenerateFormattedResult(results))
		return check.ExitCode(results)
	}

	d, err := formatter.JSON(results)
	if err != nil {
		logger.Error("Error marshalling verdicts to JSON", zap.Error(err))
		return check.ExitCounterexample
	}
	if jsonOutput == "" {
		fmt.Fprintln(w, string(d))
	} else if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
		logger.Error("Error writing JSON output file", zap.Error(err))
		return check.ExitCounterexample
	}
	return check.ExitCode(results)
}
