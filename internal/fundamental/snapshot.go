// Package fundamental holds the optional fundamental inputs of a score.
package fundamental

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/checksignal/internal/core"
)

// Snapshot is a set of fundamental ratios. A nil field is unknown, never zero.
type Snapshot struct {
	EPS              *float64 `json:"eps,omitempty"`
	BPS              *float64 `json:"bps,omitempty"`
	PER              *float64 `json:"per,omitempty"`
	PERForward       *float64 `json:"per_forward,omitempty"`
	PBR              *float64 `json:"pbr,omitempty"`
	ROEPct           *float64 `json:"roe_pct,omitempty"`
	ROAPct           *float64 `json:"roa_pct,omitempty"`
	EquityRatioPct   *float64 `json:"equity_ratio_pct,omitempty"`
	DividendYieldPct *float64 `json:"dividend_yield_pct,omitempty"`
}

// Float returns a pointer to v, or nil when v is not finite.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Value dereferences an optional field.
func Value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// field pairs a snapshot field with its wire name.
type field struct {
	name string
	ptr  **float64
}

func (s *Snapshot) fields() []field {
	return []field{
		{"eps", &s.EPS},
		{"bps", &s.BPS},
		{"per", &s.PER},
		{"per_forward", &s.PERForward},
		{"pbr", &s.PBR},
		{"roe_pct", &s.ROEPct},
		{"roa_pct", &s.ROAPct},
		{"equity_ratio_pct", &s.EquityRatioPct},
		{"dividend_yield_pct", &s.DividendYieldPct},
	}
}

// Normalize returns a copy with non-finite values turned into unknowns.
func (s Snapshot) Normalize() Snapshot {
	out := s
	for _, f := range out.fields() {
		if *f.ptr != nil {
			*f.ptr = Float(**f.ptr)
		}
	}
	return out
}

// Merge returns a copy of s where unknown fields are taken from other.
func (s Snapshot) Merge(other Snapshot) Snapshot {
	out := s
	src := other.fields()
	for i, f := range out.fields() {
		if *f.ptr == nil && *src[i].ptr != nil {
			v := **src[i].ptr
			*f.ptr = &v
		}
	}
	return out
}

// Missing returns one MISSING_INPUT warning per unknown field.
func (s Snapshot) Missing() []*core.Error {
	var warnings []*core.Error
	for _, f := range s.fields() {
		if *f.ptr == nil {
			warnings = append(warnings, core.Warnf(core.ErrMissingInput, "%s unknown", f.name))
		}
	}
	return warnings
}

// EffectivePER returns the trailing PER, falling back to the forward PER.
func (s Snapshot) EffectivePER() (float64, bool) {
	if v, ok := Value(s.PER); ok {
		return v, true
	}
	return Value(s.PERForward)
}

// Derive fills unknown ratios that can be computed from price and the
// per-share figures: PER from EPS, PBR from BPS, the equity ratio from
// ROA/ROE, and the dividend yield from the trailing-year dividends.
func (s Snapshot) Derive(price float64, dividends []core.Dividend, asOf time.Time) Snapshot {
	out := s.Normalize()
	if price <= 0 {
		return out
	}

	if eps, ok := Value(out.EPS); ok && out.PER == nil && eps > 0 {
		out.PER = Float(price / eps)
	}
	if bps, ok := Value(out.BPS); ok && out.PBR == nil && bps > 0 {
		out.PBR = Float(price / bps)
	}
	if out.EquityRatioPct == nil {
		roe, okROE := Value(out.ROEPct)
		roa, okROA := Value(out.ROAPct)
		if okROE && okROA && roe != 0 && roa != 0 {
			out.EquityRatioPct = Float(roa / roe * 100)
		}
	}
	if out.DividendYieldPct == nil {
		if y, ok := TrailingYield(dividends, price, asOf); ok {
			out.DividendYieldPct = Float(y)
		}
	}
	return out
}

// TrailingYield sums the dividends paid in the year before asOf and
// expresses them as a percentage of price.
func TrailingYield(dividends []core.Dividend, price float64, asOf time.Time) (float64, bool) {
	if price <= 0 || len(dividends) == 0 {
		return 0, false
	}
	from := asOf.AddDate(0, 0, -365)

	var sum float64
	var n int
	for _, d := range dividends {
		if d.Time.Before(from) || d.Time.After(asOf) {
			continue
		}
		sum += d.Amount
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / price * 100, true
}

// FieldNames lists the wire names of the snapshot fields in order.
func FieldNames() []string {
	var s Snapshot
	fields := s.fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

// Set assigns the field with the given wire name.
func (s *Snapshot) Set(name string, v float64) error {
	for _, f := range s.fields() {
		if f.name != name {
			continue
		}
		p := Float(v)
		if p == nil {
			return fmt.Errorf("%s must be finite", name)
		}
		*f.ptr = p
		return nil
	}
	return fmt.Errorf("unknown fundamental %q", name)
}
