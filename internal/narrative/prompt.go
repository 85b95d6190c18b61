package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/newthinker/checksignal/internal/zone"
)

const systemPrompt = `You explain stock buy-timing reports to individual investors.
Write 3 to 5 short sentences in plain English. Cover the signal, whether the
price sits inside the suggested buy range, and the main strength or weakness
from the quality, value and timing scores. Mention any warnings. Use only the
numbers given. Do not recommend buying or selling.`

// BuildPrompt renders the parts of r a reader needs into a compact text block.
func BuildPrompt(r *scoring.Report) string {
	var b strings.Builder
	set := r.Indicators

	title := r.Symbol
	if r.Name != "" {
		title = fmt.Sprintf("%s (%s)", r.Name, r.Symbol)
	}
	fmt.Fprintf(&b, "Ticker: %s\n", title)
	if r.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", r.Sector)
	}
	fmt.Fprintf(&b, "As of: %s\n", r.AsOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "Price: %.2f (%+.2f, %+.2f%%)\n", set.Price, r.Change, r.ChangePct)
	fmt.Fprintf(&b, "MA25/50/75: %.2f / %.2f / %.2f, MA25 slope %.2f%% over %d sessions\n",
		set.MA25, set.MA50, set.MA75, set.MA25SlopePct, indicator.SlopeLookback)
	fmt.Fprintf(&b, "RSI14: %s\n", num(set.RSI14))
	fmt.Fprintf(&b, "Bollinger band position: %s (%.2f sigma)\n", r.Band, r.Sigma)
	fmt.Fprintf(&b, "52-week range: %.2f to %.2f, price at %.0f%%\n", set.Low52W, set.High52W, r.Position52W)

	fmt.Fprintf(&b, "\nSignal: %s (strength %d)\n", r.Signal.Label, r.Signal.Strength)
	fmt.Fprintf(&b, "Overbought zone score: %s\n", zoneText(r.Zones.Overbought))
	fmt.Fprintf(&b, "Oversold zone score: %s\n", zoneText(r.Zones.Oversold))

	fmt.Fprintf(&b, "\nRegime: %s, active approach: %s\n", r.BuyRange.Regime, r.BuyRange.Active)
	writeAssessment(&b, r.BuyRange.Trend, set.Price)
	writeAssessment(&b, r.BuyRange.Contrarian, set.Price)

	q := r.QVT
	fmt.Fprintf(&b, "\nQVT: quality %.1f, value %.1f, timing %.1f, composite %.1f", q.Q, q.V, q.T, q.QVT)
	if q.QVTCorrected != nil {
		fmt.Fprintf(&b, " (sector-corrected %.1f)", *q.QVTCorrected)
	}
	fmt.Fprintf(&b, ", rating: %s\n", q.Rating)
	for _, rm := range q.Remarks {
		fmt.Fprintf(&b, "- %s: %s\n", rm.Metric, rm.Text)
	}

	writeFundamentals(&b, r.Fundamentals)

	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
	}
	return b.String()
}

func writeAssessment(b *strings.Builder, a buyrange.Assessment, price float64) {
	fmt.Fprintf(b, "%s approach: %d of %d conditions met, verdict %s",
		a.Mode, a.Met, len(a.Preconditions), a.Verdict)
	if a.Range != nil {
		inside := "outside"
		if a.Range.Contains(price) {
			inside = "inside"
		}
		fmt.Fprintf(b, ", buy range %.2f to %.2f (center %.2f), price %s",
			a.Range.Lower, a.Range.Upper, a.Range.Center, inside)
	}
	if len(a.Tags) > 0 {
		fmt.Fprintf(b, ", tags: %s", strings.Join(a.Tags, ", "))
	}
	b.WriteString("\n")
}

func writeFundamentals(b *strings.Builder, f fundamental.Snapshot) {
	items := []struct {
		label string
		v     *float64
	}{
		{"PER", f.PER},
		{"forward PER", f.PERForward},
		{"PBR", f.PBR},
		{"ROE %", f.ROEPct},
		{"ROA %", f.ROAPct},
		{"equity ratio %", f.EquityRatioPct},
		{"dividend yield %", f.DividendYieldPct},
	}
	var parts []string
	for _, it := range items {
		if v, ok := fundamental.Value(it.v); ok {
			parts = append(parts, fmt.Sprintf("%s %.2f", it.label, v))
		}
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(b, "Fundamentals: %s\n", strings.Join(parts, ", "))
}

func zoneText(s zone.Score) string {
	if s.Undetermined {
		return "undetermined"
	}
	return fmt.Sprintf("%d/100", s.Value)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}
