// Package zone scores how far a price sits from its overbought and oversold zones.
//
// Both scores are sums of fixed-weight conditions. A condition whose inputs
// are unknown is skipped and contributes nothing.
package zone

import (
	"math"

	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
)

// DefaultGate is the score from which a zone condition is considered satisfied.
const DefaultGate = 60

// Condition is one scored rule and its outcome.
type Condition struct {
	Name    string `json:"name"`
	Weight  int    `json:"weight"`
	Met     bool   `json:"met"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Score is an additive 0-100 zone score.
type Score struct {
	Value        int         `json:"value"`
	Undetermined bool        `json:"undetermined,omitempty"`
	Conditions   []Condition `json:"conditions"`
}

// Scores pairs the two zone scores of one session.
type Scores struct {
	Overbought Score `json:"overbought"`
	Oversold   Score `json:"oversold"`
}

// Compute scores price against both zones.
func Compute(price float64, set indicator.Set, f *fundamental.Snapshot) Scores {
	return Scores{
		Overbought: Overbought(price, set, f),
		Oversold:   Oversold(price, set, f),
	}
}

// Overbought scores the absence of overbought conditions: a high value means
// the price is not stretched.
func Overbought(price float64, set indicator.Set, f *fundamental.Snapshot) Score {
	if !anyKnown(price, set.MA25, set.MA50, set.RSI14, set.BBUpper1, set.High52W) {
		return Score{Undetermined: true}
	}

	per, pbr := ratios(f, true)

	var s Score
	s.add("price_within_10pct_of_ma", 20, known(price, set.MA25, set.MA50),
		price <= set.MA25*1.10 && price <= set.MA50*1.10)
	s.add("price_at_or_below_upper_band", 20, known(price, set.BBUpper1),
		price <= set.BBUpper1)
	s.add("rsi_below_70", 15, known(set.RSI14),
		set.RSI14 < 70)
	s.add("per_below_20", 15, known(per),
		per < 20)
	s.add("pbr_below_2", 15, known(pbr),
		pbr < 2.0)
	s.add("price_5pct_below_52w_high", 15, known(price, set.High52W),
		price < set.High52W*0.95)
	return s
}

// Oversold scores how cheap the price is: a high value means oversold.
func Oversold(price float64, set indicator.Set, f *fundamental.Snapshot) Score {
	if !anyKnown(price, set.MA25, set.MA50, set.RSI14, set.BBLower1, set.BBLower2, set.Low52W) {
		return Score{Undetermined: true}
	}

	per, pbr := ratios(f, false)

	var s Score
	s.add("price_10pct_below_ma", 20, known(price, set.MA25, set.MA50),
		price < set.MA25*0.90 && price < set.MA50*0.90)
	s.add("price_below_lower_band1", 15, known(price, set.BBLower1),
		price < set.BBLower1)
	s.add("price_below_lower_band2", 20, known(price, set.BBLower2),
		price < set.BBLower2)
	s.add("rsi_below_30", 15, known(set.RSI14),
		set.RSI14 < 30)
	s.add("per_below_10", 15, known(per),
		per < 10)
	s.add("pbr_below_1", 15, known(pbr),
		pbr < 1.0)
	s.add("price_within_5pct_of_52w_low", 15, known(price, set.Low52W),
		price <= set.Low52W*1.05)
	return s
}

func (s *Score) add(name string, weight int, isKnown, met bool) {
	c := Condition{Name: name, Weight: weight}
	switch {
	case !isKnown:
		c.Skipped = true
	case met:
		c.Met = true
		s.Value += weight
	}
	s.Conditions = append(s.Conditions, c)
}

// ratios extracts PER and PBR as NaN when unknown. Non-positive ratios are
// treated as unknown. The overbought side accepts the forward PER as fallback.
func ratios(f *fundamental.Snapshot, forwardFallback bool) (per, pbr float64) {
	per, pbr = math.NaN(), math.NaN()
	if f == nil {
		return per, pbr
	}
	var v float64
	var ok bool
	if forwardFallback {
		v, ok = f.EffectivePER()
	} else {
		v, ok = fundamental.Value(f.PER)
	}
	if ok && v > 0 {
		per = v
	}
	if v, ok := fundamental.Value(f.PBR); ok && v > 0 {
		pbr = v
	}
	return per, pbr
}

func known(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func anyKnown(values ...float64) bool {
	for _, v := range values {
		if known(v) {
			return true
		}
	}
	return false
}
