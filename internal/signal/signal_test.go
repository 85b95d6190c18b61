package signal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/stretchr/testify/assert"
)

func neutralSet() indicator.Set {
	return indicator.Set{
		Price:    100,
		MA20:     100,
		MA25:     100,
		MA50:     100,
		MA75:     100,
		Std20:    5,
		BBUpper1: 105,
		BBUpper2: 110,
		BBLower1: 95,
		BBLower2: 90,
		RSI14:    50,
		High52W:  130,
		Low52W:   80,
	}
}

func TestClassify_StrongPullbackExample(t *testing.T) {
	set := neutralSet()
	set.Price = 50
	set.MA75 = 60
	set.RSI14 = 25
	set.BBLower1 = 52

	c := Classify(set, DefaultParams())

	assert.Equal(t, CategoryStrongPullback, c.Category)
	assert.Equal(t, 3, c.Strength)
	assert.NotEmpty(t, c.Label)
}

func TestClassify_PriorityOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *indicator.Set)
		want   Category
	}{
		{
			name:   "rsi unknown wins over everything",
			mutate: func(s *indicator.Set) { s.RSI14 = math.NaN(); s.Price = 50 },
			want:   CategoryRSIUnknown,
		},
		{
			name:   "moderate: under ma75 and the band, rsi not weak",
			mutate: func(s *indicator.Set) { s.Price = 94; s.RSI14 = 45 },
			want:   CategoryModeratePullback,
		},
		{
			name: "moderate: rsi oversold under the band above ma75",
			mutate: func(s *indicator.Set) {
				s.MA75 = 80
				s.Price = 94
				s.RSI14 = 28
			},
			want: CategoryModeratePullback,
		},
		{
			name: "mild: 3% under ma25, touching the band",
			mutate: func(s *indicator.Set) {
				s.MA75 = 80
				s.Price = 95
				s.RSI14 = 35
			},
			want: CategoryMildPullback,
		},
		{
			name: "overbought warning",
			mutate: func(s *indicator.Set) {
				s.Price = 125
				s.RSI14 = 75
			},
			want: CategoryOverboughtWarning,
		},
		{
			name:   "no signal",
			mutate: func(s *indicator.Set) {},
			want:   CategoryNoSignal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := neutralSet()
			tt.mutate(&set)

			got := Classify(set, DefaultParams())

			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.want.Strength(), got.Strength)
		})
	}
}

func TestClassify_OverboughtThresholdIsTunable(t *testing.T) {
	set := neutralSet()
	set.Price = 107 // above +1σ: overbought score 50 without fundamentals

	assert.Equal(t, CategoryNoSignal, Classify(set, DefaultParams()).Category)
	assert.Equal(t, CategoryOverboughtWarning, Classify(set, Params{OverboughtWarning: 60}).Category)
}

func TestClassify_IsTotal(t *testing.T) {
	valid := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		valid[c] = true
	}

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		set := neutralSet()
		set.Price = 50 + rng.Float64()*100
		set.MA25 = 70 + rng.Float64()*60
		set.MA75 = 70 + rng.Float64()*60
		set.BBLower1 = 70 + rng.Float64()*40
		set.RSI14 = rng.Float64() * 100
		if rng.Intn(20) == 0 {
			set.RSI14 = math.NaN()
		}

		c := Classify(set, DefaultParams())

		assert.True(t, valid[c.Category], "unexpected category %q", c.Category)
		assert.GreaterOrEqual(t, c.Strength, 0)
		assert.LessOrEqual(t, c.Strength, 3)
	}
}

func TestClassify_IsIdempotent(t *testing.T) {
	set := neutralSet()
	set.Price = 93
	assert.Equal(t, Classify(set, DefaultParams()), Classify(set, DefaultParams()))
}

func TestClassifyBand(t *testing.T) {
	tests := []struct {
		price float64
		want  BandPosition
	}{
		{111, BandVeryExpensive},
		{110, BandVeryExpensive},
		{106, BandSomewhatExpensive},
		{100, BandNeutral},
		{95, BandSomewhatOversold},
		{89, BandSeverelyOversold},
	}
	for _, tt := range tests {
		set := neutralSet()
		set.Price = tt.price
		if got := ClassifyBand(set); got != tt.want {
			t.Errorf("ClassifyBand(%v) = %s, want %s", tt.price, got, tt.want)
		}
	}

	set := neutralSet()
	set.Std20 = math.NaN()
	assert.Equal(t, BandUnknown, ClassifyBand(set))
}

func TestSigma(t *testing.T) {
	set := neutralSet()
	set.Price = 110
	assert.InDelta(t, 2.0, Sigma(set), 1e-9)
}
