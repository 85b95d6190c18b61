package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/collector/archive"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var scoreOpts struct {
	csv     string
	sector  string
	json    bool
	explain bool
}

var scoreCmd = &cobra.Command{
	Use:   "score SYMBOL",
	Short: "Score one ticker",
	Long: `Score one ticker from the configured price source, or from a local CSV
with --csv. Fundamental flags take precedence over fetched values.`,
	Example: `  checksignal score 7203.T --per 9.8 --pbr 1.1 --sector Automobiles
  checksignal score AAPL --csv aapl.csv --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreOpts.csv, "csv", "", "read price history from a local CSV file")
	f.StringVar(&scoreOpts.sector, "sector", "", "sector used for benchmark correction")
	f.BoolVar(&scoreOpts.json, "json", false, "print the report as JSON")
	f.BoolVar(&scoreOpts.explain, "explain", false, "attach a narrative from the configured LLM")
	for _, name := range fundamental.FieldNames() {
		f.Float64(flagName(name), 0, fmt.Sprintf("%s value", name))
	}
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	overrides, err := fundamentalFlags(cmd.Flags())
	if err != nil {
		return err
	}

	a, err := app.Build(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building analyzer: %w", err)
	}
	if scoreOpts.csv != "" {
		file := archive.NewFile(scoreOpts.csv)
		if err := file.Init(collector.Config{}); err != nil {
			return err
		}
		a.SetPriceCollector(file)
	}

	report, err := a.Score(cmd.Context(), app.Request{
		Symbol:       args[0],
		Sector:       scoreOpts.sector,
		Fundamentals: overrides,
		Explain:      scoreOpts.explain,
	})
	if err != nil {
		return err
	}

	if scoreOpts.json {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return renderReport(cmd.OutOrStdout(), report)
}

// fundamentalFlags collects the fundamental flags the user set.
func fundamentalFlags(flags *pflag.FlagSet) (*fundamental.Snapshot, error) {
	var snap fundamental.Snapshot
	set := false
	for _, name := range fundamental.FieldNames() {
		if !flags.Changed(flagName(name)) {
			continue
		}
		v, err := flags.GetFloat64(flagName(name))
		if err != nil {
			return nil, err
		}
		if err := snap.Set(name, v); err != nil {
			return nil, fmt.Errorf("--%s: %w", flagName(name), err)
		}
		set = true
	}
	if !set {
		return nil, nil
	}
	return &snap, nil
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
