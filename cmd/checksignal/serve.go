package main

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/checksignal/internal/alert"
	"github.com/newthinker/checksignal/internal/api"
	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/metrics"
	"github.com/newthinker/checksignal/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the checksignal HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	defer log.Sync()

	var reg *metrics.Registry
	metricsPath := ""
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		metricsPath = cfg.Metrics.Path
	}

	analyzer, err := app.Build(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("building analyzer: %w", err)
	}

	alerts, err := app.BuildAlerts(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("building alerts: %w", err)
	}

	watchlist := make([]string, 0, len(cfg.Names))
	for _, n := range cfg.Names {
		watchlist = append(watchlist, n.Symbol)
	}

	log.Info("starting checksignal server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("source", cfg.Source.Provider),
		zap.Int("watchlist", len(watchlist)),
	)

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPath:  metricsPath,
	}, deps(analyzer, reg, alerts, watchlist), log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sched := scheduler.New(log)
	if cfg.Schedule.Scan != "" {
		scan := scheduler.JobFunc{JobName: "watchlist-scan", Fn: func() error {
			_, err := server.SubmitScan(nil, cfg.Schedule.ScanExplain)
			return err
		}}
		if err := sched.AddJob(cfg.Schedule.Scan, scan); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	log.Info("shutting down checksignal server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}

func deps(analyzer *app.Analyzer, reg *metrics.Registry, alerts *alert.Evaluator, watchlist []string) api.Dependencies {
	d := api.Dependencies{
		Scorer:    analyzer,
		Metrics:   reg,
		Watchlist: watchlist,
	}
	if alerts != nil {
		d.Alerter = alerts
	}
	return d
}
