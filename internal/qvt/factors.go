package qvt

import (
	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/signal"
)

// Quality scores ROE, ROA and the equity ratio against absolute baselines.
func Quality(f fundamental.Snapshot) float64 {
	return quality(f, BaselineROEPct, BaselineROAPct)
}

// CorrectedQuality rescores quality with the sector averages as baselines.
// It needs both ROE and ROA and a benchmark with positive averages.
func CorrectedQuality(f fundamental.Snapshot, bench *SectorBenchmark) (float64, bool) {
	if bench == nil || bench.ROEPct <= 0 || bench.ROAPct <= 0 {
		return 0, false
	}
	if f.ROEPct == nil || f.ROAPct == nil {
		return 0, false
	}
	return quality(f, bench.ROEPct, bench.ROAPct), true
}

func quality(f fundamental.Snapshot, roeBase, roaBase float64) float64 {
	var m mean
	if v, ok := fundamental.Value(f.ROEPct); ok {
		m.add(higherIsBetter(v, roeBase))
	}
	if v, ok := fundamental.Value(f.ROAPct); ok {
		m.add(higherIsBetter(v, roaBase))
	}
	if v, ok := fundamental.Value(f.EquityRatioPct); ok {
		m.add(higherIsBetter(v, BaselineEquityRatioPct))
	}
	return m.value()
}

// Valuation scores PER, forward PER, PBR and dividend yield. Lower ratios and
// a higher yield score higher; a non-positive ratio scores 0.
func Valuation(f fundamental.Snapshot) float64 {
	var m mean
	if v, ok := fundamental.Value(f.PER); ok {
		m.add(lowerIsBetter(v, BaselinePER))
	}
	if v, ok := fundamental.Value(f.PERForward); ok {
		m.add(lowerIsBetter(v, BaselinePER))
	}
	if v, ok := fundamental.Value(f.PBR); ok {
		m.add(lowerIsBetter(v, BaselinePBR))
	}
	if v, ok := fundamental.Value(f.DividendYieldPct); ok {
		m.add(higherIsBetter(v, BaselineDividendPct))
	}
	return m.value()
}

type band struct{ lo, hi float64 }

var timingBands = map[signal.Category]band{
	signal.CategoryStrongPullback:    {75, 100},
	signal.CategoryModeratePullback:  {60, 85},
	signal.CategoryMildPullback:      {45, 70},
	signal.CategoryNoSignal:          {30, 55},
	signal.CategoryRSIUnknown:        {25, 50},
	signal.CategoryOverboughtWarning: {0, 25},
}

// Timing places the session inside the band of its signal category, higher
// the more preconditions of the active approach hold.
func Timing(c signal.Classification, active buyrange.Assessment) float64 {
	b, ok := timingBands[c.Category]
	if !ok {
		b = timingBands[signal.CategoryNoSignal]
	}
	n := len(active.Preconditions)
	if n == 0 {
		return b.lo
	}
	met := active.Met
	if met > n {
		met = n
	}
	return clamp(b.lo + (b.hi-b.lo)*float64(met)/float64(n))
}

// higherIsBetter maps 0 to 0, baseline to 50 and twice the baseline to 100.
func higherIsBetter(v, baseline float64) float64 {
	return clamp(50 * v / baseline)
}

// lowerIsBetter maps 0 to 100, baseline to 50 and twice the baseline to 0.
func lowerIsBetter(v, baseline float64) float64 {
	if v <= 0 {
		return 0
	}
	return clamp(100 - 50*v/baseline)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}
