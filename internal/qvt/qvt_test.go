package qvt

import (
	"testing"

	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classification(c signal.Category) signal.Classification {
	return signal.Classification{Category: c, Strength: c.Strength()}
}

func ranges(met int) buyrange.Result {
	a := buyrange.Assessment{
		Mode:          buyrange.ModeTrend,
		Preconditions: make([]buyrange.Precondition, 3),
		Met:           met,
		Verdict:       buyrange.VerdictFor(met),
	}
	return buyrange.Result{Regime: buyrange.RegimeTrend, Active: buyrange.ModeTrend, Trend: a}
}

func TestCompute_AllFundamentalsAbsent(t *testing.T) {
	s := Compute(nil, classification(signal.CategoryNoSignal), ranges(3), nil, EqualWeights())

	assert.Equal(t, 0.0, s.Q)
	assert.Equal(t, 0.0, s.V)
	assert.Equal(t, 55.0, s.T)
	assert.InDelta(t, 55.0/3, s.QVT, 1e-9)
	assert.Nil(t, s.QCorrected)
	assert.Nil(t, s.QVTCorrected)
	assert.Equal(t, "pass", s.Rating)
}

func TestQuality_Baselines(t *testing.T) {
	f := fundamental.Snapshot{
		ROEPct:         fundamental.Float(10),
		ROAPct:         fundamental.Float(4),
		EquityRatioPct: fundamental.Float(40),
	}
	assert.InDelta(t, 50.0, Quality(f), 1e-9)

	f = fundamental.Snapshot{ROEPct: fundamental.Float(30), ROAPct: fundamental.Float(-2)}
	// 100 (saturated) and 0 (floored)
	assert.InDelta(t, 50.0, Quality(f), 1e-9)
}

func TestValuation(t *testing.T) {
	f := fundamental.Snapshot{
		PER:              fundamental.Float(15),
		PBR:              fundamental.Float(1.5),
		DividendYieldPct: fundamental.Float(2.5),
	}
	assert.InDelta(t, 50.0, Valuation(f), 1e-9)

	cheap := fundamental.Snapshot{PER: fundamental.Float(7.5), PBR: fundamental.Float(0.75)}
	assert.InDelta(t, 75.0, Valuation(cheap), 1e-9)

	loss := fundamental.Snapshot{PER: fundamental.Float(-4)}
	assert.Equal(t, 0.0, Valuation(loss))
}

func TestTiming_FollowsCategoryAndVerdict(t *testing.T) {
	strong := Timing(classification(signal.CategoryStrongPullback), ranges(3).Trend)
	overbought := Timing(classification(signal.CategoryOverboughtWarning), ranges(0).Trend)

	assert.Equal(t, 100.0, strong)
	assert.Equal(t, 0.0, overbought)

	prev := -1.0
	for met := 0; met <= 3; met++ {
		v := Timing(classification(signal.CategoryMildPullback), ranges(met).Trend)
		assert.Greater(t, v, prev, "timing must rise with the verdict")
		prev = v
	}
}

func TestTiming_StaysInRange(t *testing.T) {
	for _, c := range signal.Categories {
		for met := 0; met <= 3; met++ {
			v := Timing(classification(c), ranges(met).Trend)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestCompute_SectorCorrection(t *testing.T) {
	f := &fundamental.Snapshot{ROEPct: fundamental.Float(8), ROAPct: fundamental.Float(2)}
	bench := &SectorBenchmark{Name: "banks", ROEPct: 8, ROAPct: 2}

	s := Compute(f, classification(signal.CategoryNoSignal), ranges(3), bench, EqualWeights())

	assert.InDelta(t, 32.5, s.Q, 1e-9) // 40 and 25 against absolute baselines
	require.NotNil(t, s.QCorrected)
	assert.InDelta(t, 50.0, *s.QCorrected, 1e-9)
	require.NotNil(t, s.QVTCorrected)
	assert.InDelta(t, (50.0+0+55)/3, *s.QVTCorrected, 1e-9)
	assert.InDelta(t, (32.5+0+55)/3, s.QVT, 1e-9, "original composite is kept")
	assert.Equal(t, s.Effective(), *s.QVTCorrected)
}

func TestCorrectedQuality_NeedsROEAndROA(t *testing.T) {
	bench := &SectorBenchmark{ROEPct: 10, ROAPct: 4}

	_, ok := CorrectedQuality(fundamental.Snapshot{ROEPct: fundamental.Float(12)}, bench)
	assert.False(t, ok)

	_, ok = CorrectedQuality(fundamental.Snapshot{ROEPct: fundamental.Float(12), ROAPct: fundamental.Float(5)}, nil)
	assert.False(t, ok)
}

func TestCompute_Weights(t *testing.T) {
	f := &fundamental.Snapshot{ROEPct: fundamental.Float(20)}
	c := classification(signal.CategoryOverboughtWarning)

	s := Compute(f, c, ranges(0), nil, Weights{Q: 1})
	assert.InDelta(t, 100.0, s.QVT, 1e-9)

	s = Compute(f, c, ranges(0), nil, Weights{})
	assert.InDelta(t, 100.0/3, s.QVT, 1e-9, "zero weights fall back to equal")
}

func TestRating(t *testing.T) {
	tests := []struct {
		qvt  float64
		want string
	}{
		{85, "core holding candidate"},
		{70, "core holding candidate"},
		{65, "buy on dips"},
		{50, "compare with peers"},
		{49.9, "pass"},
	}
	for _, tt := range tests {
		if got := Rating(tt.qvt); got != tt.want {
			t.Errorf("Rating(%v) = %q, want %q", tt.qvt, got, tt.want)
		}
	}
}

func TestRemarks(t *testing.T) {
	r := Remarks(fundamental.Snapshot{
		PER:              fundamental.Float(35),
		PBR:              fundamental.Float(0.8),
		DividendYieldPct: fundamental.Float(3.2),
	})

	require.Len(t, r, 3)
	assert.Equal(t, "per", r[0].Metric)
	assert.Contains(t, r[0].Text, "expensive")
	assert.Equal(t, "pbr", r[1].Metric)
	assert.Equal(t, "dividend_yield", r[2].Metric)

	assert.Empty(t, Remarks(fundamental.Snapshot{PER: fundamental.Float(18)}))
}
