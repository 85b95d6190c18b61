package fundamental

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/checksignal/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func TestFloat_RejectsNonFinite(t *testing.T) {
	assert.Nil(t, Float(math.NaN()))
	assert.Nil(t, Float(math.Inf(1)))
	require.NotNil(t, Float(1.5))
	assert.Equal(t, 1.5, *Float(1.5))
}

func TestSnapshot_Missing(t *testing.T) {
	s := Snapshot{PER: Float(12), PBR: Float(0.9)}

	warnings := s.Missing()

	assert.Len(t, warnings, 7)
	for _, w := range warnings {
		assert.True(t, errors.Is(w, core.ErrMissingInput))
	}
	assert.Empty(t, Snapshot{
		EPS: Float(1), BPS: Float(1), PER: Float(1), PERForward: Float(1), PBR: Float(1),
		ROEPct: Float(1), ROAPct: Float(1), EquityRatioPct: Float(1), DividendYieldPct: Float(1),
	}.Missing())
}

func TestSnapshot_EffectivePER(t *testing.T) {
	v, ok := Snapshot{PER: Float(15), PERForward: Float(12)}.EffectivePER()
	assert.True(t, ok)
	assert.Equal(t, 15.0, v)

	v, ok = Snapshot{PERForward: Float(12)}.EffectivePER()
	assert.True(t, ok)
	assert.Equal(t, 12.0, v)

	_, ok = Snapshot{}.EffectivePER()
	assert.False(t, ok)
}

func TestSnapshot_Derive(t *testing.T) {
	s := Snapshot{
		EPS:    Float(10),
		BPS:    Float(200),
		ROEPct: Float(12),
		ROAPct: Float(6),
	}
	dividends := []core.Dividend{
		{Amount: 2, Time: asOf.AddDate(0, -2, 0)},
		{Amount: 2, Time: asOf.AddDate(0, -8, 0)},
		{Amount: 5, Time: asOf.AddDate(-2, 0, 0)}, // outside the trailing year
	}

	d := s.Derive(100, dividends, asOf)

	require.NotNil(t, d.PER)
	assert.InDelta(t, 10.0, *d.PER, 1e-9)
	require.NotNil(t, d.PBR)
	assert.InDelta(t, 0.5, *d.PBR, 1e-9)
	require.NotNil(t, d.EquityRatioPct)
	assert.InDelta(t, 50.0, *d.EquityRatioPct, 1e-9)
	require.NotNil(t, d.DividendYieldPct)
	assert.InDelta(t, 4.0, *d.DividendYieldPct, 1e-9)

	assert.Nil(t, s.PER, "Derive must not mutate the receiver")
}

func TestSnapshot_DeriveKeepsKnownValues(t *testing.T) {
	s := Snapshot{EPS: Float(10), PER: Float(25)}

	d := s.Derive(100, nil, asOf)

	assert.Equal(t, 25.0, *d.PER)
	assert.Nil(t, d.DividendYieldPct)
}

func TestSnapshot_DeriveSkipsLossMakers(t *testing.T) {
	d := Snapshot{EPS: Float(-3)}.Derive(100, nil, asOf)
	assert.Nil(t, d.PER)
}

func TestSnapshot_Merge(t *testing.T) {
	base := Snapshot{PER: Float(10)}
	other := Snapshot{PER: Float(20), PBR: Float(1.2)}

	m := base.Merge(other)

	assert.Equal(t, 10.0, *m.PER)
	assert.Equal(t, 1.2, *m.PBR)
	assert.Nil(t, base.PBR)
}

func TestSnapshot_Normalize(t *testing.T) {
	nan := math.NaN()
	s := Snapshot{PER: &nan, PBR: Float(1)}.Normalize()
	assert.Nil(t, s.PER)
	assert.NotNil(t, s.PBR)
}

func TestTrailingYield(t *testing.T) {
	_, ok := TrailingYield(nil, 100, asOf)
	assert.False(t, ok)

	_, ok = TrailingYield([]core.Dividend{{Amount: 1, Time: asOf.AddDate(-3, 0, 0)}}, 100, asOf)
	assert.False(t, ok)

	y, ok := TrailingYield([]core.Dividend{{Amount: 3, Time: asOf}}, 50, asOf)
	assert.True(t, ok)
	assert.InDelta(t, 6.0, y, 1e-9)
}

func TestSnapshot_Set(t *testing.T) {
	var s Snapshot
	require.NoError(t, s.Set("per_forward", 14))
	require.NoError(t, s.Set("dividend_yield_pct", 3.2))

	assert.Equal(t, 14.0, *s.PERForward)
	assert.Equal(t, 3.2, *s.DividendYieldPct)
	assert.Error(t, s.Set("peg", 1))
	assert.Error(t, s.Set("pbr", math.Inf(1)))
	assert.Nil(t, s.PBR)
}

func TestFieldNames(t *testing.T) {
	names := FieldNames()
	assert.Len(t, names, 9)
	assert.Equal(t, "eps", names[0])
	assert.Contains(t, names, "equity_ratio_pct")
}
