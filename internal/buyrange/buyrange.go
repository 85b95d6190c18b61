// Package buyrange computes the discretionary buy ranges of the trend
// following and contrarian approaches.
package buyrange

import (
	"math"

	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/zone"
)

// Regime is the ordering of the MA25/MA50/MA75 stack.
type Regime string

const (
	RegimeTrend      Regime = "trend"      // ma75 < ma50 < ma25
	RegimeContrarian Regime = "contrarian" // ma75 > ma50 > ma25
	RegimeFlat       Regime = "flat"       // spread within tolerance
	RegimeAmbiguous  Regime = "ambiguous"
)

// Mode names one of the two approaches.
type Mode string

const (
	ModeTrend      Mode = "trend"
	ModeContrarian Mode = "contrarian"
)

// Verdict is the conviction derived from the number of preconditions met.
type Verdict string

const (
	VerdictPass       Verdict = "pass"
	VerdictCaution    Verdict = "caution"
	VerdictConsider   Verdict = "consider"
	VerdictAttractive Verdict = "attractive"
)

var verdicts = [...]Verdict{VerdictPass, VerdictCaution, VerdictConsider, VerdictAttractive}

// VerdictFor maps a count of satisfied preconditions (0-3) to a verdict.
func VerdictFor(met int) Verdict {
	if met < 0 {
		met = 0
	}
	if met >= len(verdicts) {
		met = len(verdicts) - 1
	}
	return verdicts[met]
}

// Rank orders verdicts from pass (0) to attractive (3); -1 when unknown.
func (v Verdict) Rank() int {
	for i, candidate := range verdicts {
		if candidate == v {
			return i
		}
	}
	return -1
}

// Contrarian tags.
const (
	TagPBRDiscount  = "PBR discount"
	TagHighDividend = "high dividend"
)

// Params tunes the regime test and the preconditions.
type Params struct {
	FlatTolerance float64
	ZoneGate      int
	SlopeMax      float64
}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		FlatTolerance: 0.03,
		ZoneGate:      zone.DefaultGate,
		SlopeMax:      0.3,
	}
}

// Range is a price band. Lower <= Center <= Upper always holds.
type Range struct {
	Center float64 `json:"center"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
}

// Contains reports whether price lies inside the range.
func (r Range) Contains(price float64) bool {
	return price >= r.Lower && price <= r.Upper
}

// Precondition is one of the three checks of an approach.
type Precondition struct {
	Name string `json:"name"`
	Met  bool   `json:"met"`
}

// Assessment is the evaluation of one approach. Range is nil when any
// precondition fails; the verdict is reported regardless.
type Assessment struct {
	Mode          Mode           `json:"mode"`
	Preconditions []Precondition `json:"preconditions"`
	Met           int            `json:"met"`
	Verdict       Verdict        `json:"verdict"`
	Range         *Range         `json:"range,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
}

// Result holds both assessments.
type Result struct {
	Regime     Regime     `json:"regime"`
	Active     Mode       `json:"active"`
	Trend      Assessment `json:"trend"`
	Contrarian Assessment `json:"contrarian"`
}

// ActiveAssessment returns the assessment of the active approach.
func (r Result) ActiveAssessment() Assessment {
	if r.Active == ModeContrarian {
		return r.Contrarian
	}
	return r.Trend
}

// Compute evaluates both approaches. At most one range is returned since
// their slope preconditions are disjoint.
func Compute(set indicator.Set, scores zone.Scores, p Params) Result {
	regime := Classify(set.MA25, set.MA50, set.MA75, p.FlatTolerance)
	flat := IsFlat(p.FlatTolerance, set.MA25, set.MA50, set.MA75)
	up := regime == RegimeTrend || flat
	down := regime == RegimeContrarian || flat
	slope := set.MA25SlopePct

	trend := assess(ModeTrend,
		Precondition{Name: "trend_regime", Met: up},
		Precondition{Name: "gentle_rising_slope", Met: slope >= 0 && slope <= p.SlopeMax},
		Precondition{Name: "not_overbought", Met: scores.Overbought.Value >= p.ZoneGate},
	)
	if trend.Met == len(trend.Preconditions) {
		trend.Range = trendRange(set)
	}

	contrarian := assess(ModeContrarian,
		Precondition{Name: "contrarian_regime", Met: down},
		Precondition{Name: "falling_slope", Met: slope < 0},
		Precondition{Name: "oversold", Met: scores.Oversold.Value >= p.ZoneGate},
	)
	if contrarian.Met == len(contrarian.Preconditions) {
		contrarian.Range = contrarianRange(set)
	}

	return Result{
		Regime:     regime,
		Active:     activeMode(regime, slope, trend, contrarian),
		Trend:      trend,
		Contrarian: contrarian,
	}
}

// Classify determines the regime of an MA stack. A strict ordering is reported
// even when the stack is also flat.
func Classify(ma25, ma50, ma75, tolerance float64) Regime {
	switch {
	case ma75 < ma50 && ma50 < ma25:
		return RegimeTrend
	case ma75 > ma50 && ma50 > ma25:
		return RegimeContrarian
	case IsFlat(tolerance, ma25, ma50, ma75):
		return RegimeFlat
	default:
		return RegimeAmbiguous
	}
}

// IsFlat reports whether (max-min)/max of the values is within tolerance.
func IsFlat(tolerance float64, values ...float64) bool {
	if len(values) == 0 {
		return false
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, v := range values {
		if math.IsNaN(v) {
			return false
		}
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	if hi <= 0 {
		return false
	}
	return (hi-lo)/hi <= tolerance
}

// ContrarianTags returns the valuation tags attached to a contrarian setup.
func ContrarianTags(f *fundamental.Snapshot) []string {
	if f == nil {
		return nil
	}
	var tags []string
	if pbr, ok := fundamental.Value(f.PBR); ok && pbr > 0 && pbr < 1 {
		tags = append(tags, TagPBRDiscount)
	}
	if y, ok := fundamental.Value(f.DividendYieldPct); ok && y > 3 {
		tags = append(tags, TagHighDividend)
	}
	return tags
}

func assess(mode Mode, conditions ...Precondition) Assessment {
	a := Assessment{Mode: mode, Preconditions: conditions}
	for _, c := range conditions {
		if c.Met {
			a.Met++
		}
	}
	a.Verdict = VerdictFor(a.Met)
	return a
}

func trendRange(set indicator.Set) *Range {
	center := (set.MA25 + set.MA50) / 2
	lower := center * 0.95
	if set.BBLower1 > lower {
		lower = set.BBLower1
	}
	if lower > center {
		lower = center
	}
	return &Range{Center: center, Upper: center * 1.03, Lower: lower}
}

// contrarianRange returns nil when the -1σ band drags the center to zero or
// below, where the multiplicative band would invert.
func contrarianRange(set indicator.Set) *Range {
	center := (set.MA25 + set.BBLower1) / 2
	if !(center > 0) {
		return nil
	}
	return &Range{Center: center, Upper: center * 1.08, Lower: center * 0.97}
}

func activeMode(regime Regime, slope float64, trend, contrarian Assessment) Mode {
	switch regime {
	case RegimeTrend:
		return ModeTrend
	case RegimeContrarian:
		return ModeContrarian
	case RegimeFlat:
		if slope < 0 {
			return ModeContrarian
		}
		return ModeTrend
	default:
		if contrarian.Met > trend.Met {
			return ModeContrarian
		}
		return ModeTrend
	}
}
