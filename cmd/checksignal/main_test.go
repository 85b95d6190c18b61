package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHistory(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Date,Close,Dividends\n")
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)*0.5
		if i%3 == 0 {
			c -= 0.8
		}
		div := ""
		if i == n-30 {
			div = "1.5"
		}
		fmt.Fprintf(&b, "%s,%.2f,%s\n", day.AddDate(0, 0, i).Format("2006-01-02"), c, div)
	}
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFundamentalFlags(t *testing.T) {
	flags := pflag.NewFlagSet("score", pflag.ContinueOnError)
	for _, name := range fundamental.FieldNames() {
		flags.Float64(flagName(name), 0, "")
	}

	snap, err := fundamentalFlags(flags)
	require.NoError(t, err)
	assert.Nil(t, snap, "no flags set means no overrides")

	require.NoError(t, flags.Parse([]string{"--per", "11.5", "--roe-pct", "9.2"}))
	snap, err = fundamentalFlags(flags)
	require.NoError(t, err)
	require.NotNil(t, snap)

	per, _ := fundamental.Value(snap.PER)
	roe, _ := fundamental.Value(snap.ROEPct)
	assert.Equal(t, 11.5, per)
	assert.Equal(t, 9.2, roe)
	assert.Nil(t, snap.PBR)
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "dividend-yield-pct", flagName("dividend_yield_pct"))
	assert.Equal(t, "per", flagName("per"))
}

func TestScoreCommand_CSV(t *testing.T) {
	path := writeHistory(t, 120)

	out, err := execute(t, "score", "test", "--csv", path, "--json", "--per", "12", "--sector", "Retail")
	require.NoError(t, err, out)

	var report scoring.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, "TEST", report.Symbol)
	assert.Equal(t, "Retail", report.Sector)
	per, ok := fundamental.Value(report.Fundamentals.PER)
	assert.True(t, ok)
	assert.Equal(t, 12.0, per)
	assert.NotNil(t, report.Fundamentals.DividendYieldPct, "yield derived from the CSV dividends")

	out, err = execute(t, "score", "test", "--csv", path, "--json=false")
	require.NoError(t, err, out)
	for _, want := range []string{"TEST", "Signal", "Regime", "QVT", "Q / V / T"} {
		assert.Contains(t, out, want)
	}
}

func TestScoreCommand_InsufficientHistory(t *testing.T) {
	path := writeHistory(t, 30)

	_, err := execute(t, "score", "short", "--csv", path, "--json=false")

	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "checksignal dev")
}

func TestScanCommand_NotifyNeedsAlerts(t *testing.T) {
	_, err := execute(t, "scan", "AAPL", "--notify")
	t.Cleanup(func() { scanOpts.notify = false })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts.enabled")
}
