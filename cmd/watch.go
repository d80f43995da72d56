package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/eqv/check"
	"github.com/gnoswap-labs/eqv/formatter"
	"github.com/gnoswap-labs/eqv/internal"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-check programs whenever they are written",
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

		watcher, err := internal.NewWatcher(engine, logger, func(r *internal.Result, err error) {
			if err != nil {
				logger.Error("Check failed", zap.Error(err))
				return
			}
			fmt.Print(formatter.GenerateFormattedResult([]*internal.Result{r}))
		})
		if err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		for _, path := range args {
			if err := watcher.Add(path); err != nil {
				logger.Fatal("Failed to watch path", zap.String("path", path), zap.Error(err))
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logger.Info("Watching for changes", zap.Strings("paths", args))
		if err := watcher.Run(ctx); err != nil {
			logger.Error("Watcher stopped", zap.Error(err))
		}
	},
}

func init() {
	addCheckFlags(watchCmd)
}
