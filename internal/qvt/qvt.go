// Package qvt combines quality, valuation and timing into one 0-100 score.
package qvt

import (
	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/signal"
)

// Baselines that map to a factor component of 50.
const (
	BaselineROEPct         = 10.0
	BaselineROAPct         = 4.0
	BaselineEquityRatioPct = 40.0
	BaselinePER            = 15.0
	BaselinePBR            = 1.5
	BaselineDividendPct    = 2.5
)

// Weights of the three factors in the composite.
type Weights struct {
	Q float64 `json:"q" mapstructure:"q"`
	V float64 `json:"v" mapstructure:"v"`
	T float64 `json:"t" mapstructure:"t"`
}

// EqualWeights returns the arithmetic mean weighting.
func EqualWeights() Weights {
	return Weights{Q: 1, V: 1, T: 1}
}

// SectorBenchmark carries sector average profitability.
type SectorBenchmark struct {
	Name   string  `json:"name,omitempty" mapstructure:"name"`
	ROEPct float64 `json:"roe_pct" mapstructure:"roe_pct"`
	ROAPct float64 `json:"roa_pct" mapstructure:"roa_pct"`
}

// Score is the composite. The corrected values are set only when a sector
// benchmark was applied.
type Score struct {
	Q   float64 `json:"q"`
	V   float64 `json:"v"`
	T   float64 `json:"t"`
	QVT float64 `json:"qvt"`

	QCorrected   *float64 `json:"q_corrected,omitempty"`
	QVTCorrected *float64 `json:"qvt_corrected,omitempty"`

	Rating  string   `json:"rating"`
	Remarks []Remark `json:"remarks,omitempty"`
}

// Effective returns the corrected composite when present.
func (s Score) Effective() float64 {
	if s.QVTCorrected != nil {
		return *s.QVTCorrected
	}
	return s.QVT
}

// Compute scores the three factors and their weighted mean. It never fails:
// a factor without any usable input is 0.
func Compute(f *fundamental.Snapshot, c signal.Classification, r buyrange.Result, bench *SectorBenchmark, w Weights) Score {
	if f == nil {
		f = &fundamental.Snapshot{}
	}

	s := Score{
		Q: Quality(*f),
		V: Valuation(*f),
		T: Timing(c, r.ActiveAssessment()),
	}
	s.QVT = combine(s.Q, s.V, s.T, w)

	if q, ok := CorrectedQuality(*f, bench); ok {
		qvt := combine(q, s.V, s.T, w)
		s.QCorrected = &q
		s.QVTCorrected = &qvt
	}

	s.Rating = Rating(s.Effective())
	s.Remarks = Remarks(*f)
	return s
}

func combine(q, v, t float64, w Weights) float64 {
	total := w.Q + w.V + w.T
	if w.Q < 0 || w.V < 0 || w.T < 0 || total <= 0 {
		w, total = EqualWeights(), 3
	}
	return clamp((w.Q*q + w.V*v + w.T*t) / total)
}

// Rating turns a composite into an action text.
func Rating(qvt float64) string {
	switch {
	case qvt >= 70:
		return "core holding candidate"
	case qvt >= 60:
		return "buy on dips"
	case qvt >= 50:
		return "compare with peers"
	default:
		return "pass"
	}
}
