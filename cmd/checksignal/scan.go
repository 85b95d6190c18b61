package main

import (
	"fmt"

	"github.com/newthinker/checksignal/internal/alert"
	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/notifier"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/spf13/cobra"
)

var scanOpts struct {
	json    bool
	explain bool
	notify  bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [SYMBOL...]",
	Short: "Score several tickers, the configured names by default",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanOpts.json, "json", false, "print the results as JSON")
	scanCmd.Flags().BoolVar(&scanOpts.explain, "explain", false, "attach narratives from the configured LLM")
	scanCmd.Flags().BoolVar(&scanOpts.notify, "notify", false, "evaluate the configured alert rules and send what fires")
	rootCmd.AddCommand(scanCmd)
}

type scanEntry struct {
	Symbol string          `json:"symbol"`
	Report *scoring.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	symbols := args
	if len(symbols) == 0 {
		for _, n := range cfg.Names {
			symbols = append(symbols, n.Symbol)
		}
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given and no names configured")
	}

	a, err := app.Build(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building analyzer: %w", err)
	}

	var alerts *alert.Evaluator
	if scanOpts.notify {
		if alerts, err = app.BuildAlerts(cfg, log, nil); err != nil {
			return fmt.Errorf("building alerts: %w", err)
		}
		if alerts == nil {
			return fmt.Errorf("--notify needs alerts.enabled in the config")
		}
	}

	results := a.ScoreAll(cmd.Context(), symbols, scanOpts.explain)

	if alerts != nil {
		reports := make([]*scoring.Report, 0, len(results))
		for _, r := range results {
			if r.Report != nil {
				reports = append(reports, r.Report)
			}
		}
		for _, fired := range alerts.Evaluate(cmd.Context(), reports) {
			fmt.Fprintln(cmd.ErrOrStderr(), notifier.Summary(fired))
		}
	}

	if scanOpts.json {
		entries := make([]scanEntry, 0, len(results))
		for _, r := range results {
			e := scanEntry{Symbol: r.Symbol}
			if r.Err != nil {
				e.Error = r.Err.Error()
			} else {
				e.Report = r.Report
			}
			entries = append(entries, e)
		}
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	return renderScan(cmd.OutOrStdout(), results)
}
