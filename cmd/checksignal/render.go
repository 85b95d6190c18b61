package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/newthinker/checksignal/internal/zone"
)

// renderReport prints a report as aligned text sections.
func renderReport(out io.Writer, r *scoring.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	set := r.Indicators

	title := r.Symbol
	if r.Name != "" {
		title = fmt.Sprintf("%s  %s", r.Symbol, r.Name)
	}
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "As of\t%s\n", r.AsOf.Format("2006-01-02"))
	if r.Sector != "" {
		fmt.Fprintf(w, "Sector\t%s\n", r.Sector)
	}
	fmt.Fprintf(w, "Price\t%.2f\t%+.2f (%+.2f%%)\n", set.Price, r.Change, r.ChangePct)

	fmt.Fprintf(w, "\nIndicators\n")
	fmt.Fprintf(w, "  MA25 / MA50 / MA75\t%.2f / %.2f / %.2f\n", set.MA25, set.MA50, set.MA75)
	fmt.Fprintf(w, "  MA25 slope\t%+.2f%%\n", set.MA25SlopePct)
	fmt.Fprintf(w, "  RSI14\t%.1f\n", set.RSI14)
	fmt.Fprintf(w, "  Bollinger\t%s (%+.2f sigma)\n", r.Band, r.Sigma)
	fmt.Fprintf(w, "  52-week\t%.2f - %.2f (%.0f%%)\n", set.Low52W, set.High52W, r.Position52W)

	fmt.Fprintf(w, "\nSignal\t%s\tstrength %d\n", r.Signal.Label, r.Signal.Strength)
	fmt.Fprintf(w, "  Overbought zone\t%s\n", zoneScore(r.Zones.Overbought))
	fmt.Fprintf(w, "  Oversold zone\t%s\n", zoneScore(r.Zones.Oversold))

	fmt.Fprintf(w, "\nRegime\t%s\tactive: %s\n", r.BuyRange.Regime, r.BuyRange.Active)
	for _, a := range []buyrange.Assessment{r.BuyRange.Trend, r.BuyRange.Contrarian} {
		fmt.Fprintf(w, "  %s\t%d/%d met\t%s\t%s\n",
			a.Mode, a.Met, len(a.Preconditions), a.Verdict, rangeText(a.Range, set.Price))
		if len(a.Tags) > 0 {
			fmt.Fprintf(w, "\t\ttags: %s\n", strings.Join(a.Tags, ", "))
		}
	}

	q := r.QVT
	fmt.Fprintf(w, "\nQVT\t%.1f", q.QVT)
	if q.QVTCorrected != nil {
		fmt.Fprintf(w, " (sector %.1f)", *q.QVTCorrected)
	}
	fmt.Fprintf(w, "\t%s\n", q.Rating)
	fmt.Fprintf(w, "  Q / V / T\t%.1f / %.1f / %.1f\n", q.Q, q.V, q.T)
	for _, rm := range q.Remarks {
		fmt.Fprintf(w, "  %s\t%s\n", rm.Metric, rm.Text)
	}

	if f := fundamentalsText(r.Fundamentals); f != "" {
		fmt.Fprintf(w, "\nFundamentals\t%s\n", f)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings\n")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s\t%s\n", warn.Code, warn.Message)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if r.Narrative != "" {
		_, err := fmt.Fprintf(out, "\n%s\n", r.Narrative)
		return err
	}
	return nil
}

// renderScan prints one line per symbol.
func renderScan(out io.Writer, results []app.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSIGNAL\tREGIME\tVERDICT\tQVT\tPRICE\tBUY RANGE")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", res.Symbol, res.Err)
			continue
		}
		r := res.Report
		active := r.BuyRange.ActiveAssessment()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%.2f\t%s\n",
			r.Symbol, r.Signal.Category, r.BuyRange.Regime, active.Verdict,
			r.QVT.Effective(), r.Indicators.Price, rangeText(active.Range, r.Indicators.Price))
	}
	return w.Flush()
}

func zoneScore(s zone.Score) string {
	if s.Undetermined {
		return "undetermined"
	}
	return fmt.Sprintf("%d", s.Value)
}

func rangeText(rg *buyrange.Range, price float64) string {
	if rg == nil {
		return "-"
	}
	mark := ""
	if rg.Contains(price) {
		mark = " *"
	}
	return fmt.Sprintf("%.2f - %.2f%s", rg.Lower, rg.Upper, mark)
}

func fundamentalsText(f fundamental.Snapshot) string {
	items := []struct {
		label string
		v     *float64
	}{
		{"PER", f.PER},
		{"fwd PER", f.PERForward},
		{"PBR", f.PBR},
		{"ROE", f.ROEPct},
		{"ROA", f.ROAPct},
		{"equity", f.EquityRatioPct},
		{"yield", f.DividendYieldPct},
	}
	var parts []string
	for _, it := range items {
		if v, ok := fundamental.Value(it.v); ok {
			parts = append(parts, fmt.Sprintf("%s %.2f", it.label, v))
		}
	}
	return strings.Join(parts, "  ")
}
