package buyrange

import (
	"math/rand"
	"testing"

	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scores(overbought, oversold int) zone.Scores {
	return zone.Scores{
		Overbought: zone.Score{Value: overbought},
		Oversold:   zone.Score{Value: oversold},
	}
}

func uptrendSet() indicator.Set {
	return indicator.Set{
		Price:        108,
		MA25:         110,
		MA50:         100,
		MA75:         90,
		BBLower1:     95,
		RSI14:        55,
		MA25SlopePct: 0.1,
	}
}

func TestCompute_TrendRangeExample(t *testing.T) {
	r := Compute(uptrendSet(), scores(70, 0), DefaultParams())

	assert.Equal(t, RegimeTrend, r.Regime)
	assert.Equal(t, ModeTrend, r.Active)
	require.NotNil(t, r.Trend.Range)
	assert.InDelta(t, 105.0, r.Trend.Range.Center, 1e-9)
	assert.InDelta(t, 108.15, r.Trend.Range.Upper, 1e-9)
	assert.InDelta(t, 99.75, r.Trend.Range.Lower, 1e-9)
	assert.Equal(t, VerdictAttractive, r.Trend.Verdict)
	assert.Nil(t, r.Contrarian.Range)
}

func TestCompute_TrendLowerUsesBandWhenHigher(t *testing.T) {
	set := uptrendSet()
	set.BBLower1 = 102

	r := Compute(set, scores(70, 0), DefaultParams())

	require.NotNil(t, r.Trend.Range)
	assert.Equal(t, 102.0, r.Trend.Range.Lower)
}

func TestCompute_TrendLowerCappedAtCenter(t *testing.T) {
	set := uptrendSet()
	set.BBLower1 = 107

	r := Compute(set, scores(70, 0), DefaultParams())

	require.NotNil(t, r.Trend.Range)
	assert.Equal(t, r.Trend.Range.Center, r.Trend.Range.Lower)
}

func TestCompute_TrendWithheldKeepsVerdict(t *testing.T) {
	set := uptrendSet()
	set.MA25SlopePct = 1.2

	r := Compute(set, scores(40, 0), DefaultParams())

	assert.Nil(t, r.Trend.Range)
	assert.Equal(t, 1, r.Trend.Met)
	assert.Equal(t, VerdictCaution, r.Trend.Verdict)
}

func TestCompute_ContrarianRange(t *testing.T) {
	set := indicator.Set{
		Price:        80,
		MA25:         90,
		MA50:         100,
		MA75:         110,
		BBLower1:     84,
		MA25SlopePct: -0.8,
	}

	r := Compute(set, scores(0, 65), DefaultParams())

	assert.Equal(t, RegimeContrarian, r.Regime)
	assert.Equal(t, ModeContrarian, r.Active)
	require.NotNil(t, r.Contrarian.Range)
	assert.InDelta(t, 87.0, r.Contrarian.Range.Center, 1e-9)
	assert.InDelta(t, 93.96, r.Contrarian.Range.Upper, 1e-9)
	assert.InDelta(t, 84.39, r.Contrarian.Range.Lower, 1e-9)
	assert.Equal(t, VerdictAttractive, r.Contrarian.Verdict)
	assert.Nil(t, r.Trend.Range)
	assert.Equal(t, VerdictPass, r.Trend.Verdict)
}

func TestCompute_FlatStackQualifiesBothRegimes(t *testing.T) {
	set := indicator.Set{MA25: 100, MA50: 101, MA75: 99, BBLower1: 96, MA25SlopePct: -0.2}

	r := Compute(set, scores(0, 60), DefaultParams())

	assert.Equal(t, RegimeFlat, r.Regime)
	assert.True(t, r.Trend.Preconditions[0].Met)
	assert.True(t, r.Contrarian.Preconditions[0].Met)
	assert.Equal(t, ModeContrarian, r.Active)
	assert.NotNil(t, r.Contrarian.Range)
}

func TestCompute_AmbiguousWithholdsBothRanges(t *testing.T) {
	// ma50 above both others, spread 20%
	set := indicator.Set{MA25: 100, MA50: 120, MA75: 100, BBLower1: 90, MA25SlopePct: 0.1}

	r := Compute(set, scores(100, 100), DefaultParams())

	assert.Equal(t, RegimeAmbiguous, r.Regime)
	assert.Nil(t, r.Trend.Range)
	assert.Nil(t, r.Contrarian.Range)
	assert.Equal(t, VerdictConsider, r.Trend.Verdict)
	assert.Equal(t, ModeTrend, r.Active)
}

func TestCompute_RangeInvariantHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		set := indicator.Set{
			MA25:         50 + rng.Float64()*100,
			MA50:         50 + rng.Float64()*100,
			MA75:         50 + rng.Float64()*100,
			BBLower1:     -200 + rng.Float64()*360,
			MA25SlopePct: rng.Float64()*2 - 1,
		}
		r := Compute(set, scores(rng.Intn(101), rng.Intn(101)), Params{FlatTolerance: 0.5, ZoneGate: 0, SlopeMax: 1})

		assert.False(t, r.Trend.Range != nil && r.Contrarian.Range != nil, "both ranges returned")
		for _, rg := range []*Range{r.Trend.Range, r.Contrarian.Range} {
			if rg == nil {
				continue
			}
			assert.LessOrEqual(t, rg.Lower, rg.Center)
			assert.LessOrEqual(t, rg.Center, rg.Upper)
		}
	}
}

func TestCompute_ContrarianRangeWithheldForNonPositiveCenter(t *testing.T) {
	// a spike widened the bands so far that -1σ sits below zero
	set := indicator.Set{MA25: 1.3, MA50: 1.6, MA75: 2.0, BBLower1: -50.43, MA25SlopePct: -0.593}

	r := Compute(set, scores(0, 80), DefaultParams())

	assert.Equal(t, RegimeContrarian, r.Regime)
	assert.Equal(t, 3, r.Contrarian.Met)
	assert.Equal(t, VerdictAttractive, r.Contrarian.Verdict)
	assert.Nil(t, r.Contrarian.Range)
	assert.Nil(t, r.Trend.Range)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		ma25, ma50, ma75 float64
		tolerance        float64
		want             Regime
	}{
		{"strict up", 110, 100, 90, 0.03, RegimeTrend},
		{"strict up and flat", 101, 100.5, 100, 0.03, RegimeTrend},
		{"strict down", 90, 100, 110, 0.03, RegimeContrarian},
		{"flat", 100, 102, 101, 0.03, RegimeFlat},
		{"flat with tighter tolerance fails", 100, 102, 101, 0.01, RegimeAmbiguous},
		{"ambiguous", 100, 120, 90, 0.03, RegimeAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ma25, tt.ma50, tt.ma75, tt.tolerance))
		})
	}
}

func TestVerdictFor(t *testing.T) {
	assert.Equal(t, VerdictPass, VerdictFor(0))
	assert.Equal(t, VerdictCaution, VerdictFor(1))
	assert.Equal(t, VerdictConsider, VerdictFor(2))
	assert.Equal(t, VerdictAttractive, VerdictFor(3))
	assert.Equal(t, VerdictAttractive, VerdictFor(9))

	for met := 0; met <= 3; met++ {
		assert.Equal(t, met, VerdictFor(met).Rank())
	}
	assert.Equal(t, -1, Verdict("maybe").Rank())
}

func TestContrarianTags(t *testing.T) {
	assert.Nil(t, ContrarianTags(nil))
	assert.Empty(t, ContrarianTags(&fundamental.Snapshot{PBR: fundamental.Float(1.4)}))

	tags := ContrarianTags(&fundamental.Snapshot{
		PBR:              fundamental.Float(0.8),
		DividendYieldPct: fundamental.Float(3.5),
	})
	assert.Equal(t, []string{TagPBRDiscount, TagHighDividend}, tags)
}

func TestRange_Contains(t *testing.T) {
	r := Range{Center: 100, Upper: 103, Lower: 95}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(95))
	assert.False(t, r.Contains(104))
}
