package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/checksignal/internal/config"
	"github.com/newthinker/checksignal/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "checksignal",
	Short: "Buy-timing signals and QVT scores for single tickers",
	Long: `checksignal scores a ticker from its daily price history and fundamentals:
overbought/oversold zones, a signal category, trend and contrarian buy ranges
and a quality/value/timing composite.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// setup loads and validates the configuration and builds the logger.
// quiet raises the default level to warn for commands that print results.
func setup(quiet bool) (*config.Config, *zap.Logger, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	opts := logger.Options{Development: debug || cfg.Log.Development, Level: cfg.Log.Level}
	switch {
	case debug:
		opts.Level = "debug"
	case quiet:
		opts.Level = "warn"
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, nil, err
	}

	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}
	return cfg, log, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
