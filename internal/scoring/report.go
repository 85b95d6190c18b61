package scoring

import (
	"errors"
	"time"

	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/qvt"
	"github.com/newthinker/checksignal/internal/signal"
	"github.com/newthinker/checksignal/internal/zone"
)

// Warning is a non-fatal condition met while scoring.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report is the outcome of one scoring pass.
type Report struct {
	ID          string    `json:"id,omitempty"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name,omitempty"`
	Sector      string    `json:"sector,omitempty"`
	AsOf        time.Time `json:"as_of"`
	GeneratedAt time.Time `json:"generated_at"`

	Indicators   indicator.Set         `json:"indicators"`
	Change       float64               `json:"change"`
	ChangePct    float64               `json:"change_pct"`
	Position52W  float64               `json:"position_52w"`
	Band         signal.BandPosition   `json:"band"`
	Sigma        float64               `json:"sigma"`
	Fundamentals fundamental.Snapshot  `json:"fundamentals"`
	Zones        zone.Scores           `json:"zones"`
	Signal       signal.Classification `json:"signal"`
	BuyRange     buyrange.Result       `json:"buy_range"`
	QVT          qvt.Score             `json:"qvt"`
	Warnings     []Warning             `json:"warnings,omitempty"`

	Narrative string `json:"narrative,omitempty"`
}

func newReport(
	symbol string,
	set *indicator.Set,
	snap fundamental.Snapshot,
	zones zone.Scores,
	class signal.Classification,
	ranges buyrange.Result,
	score qvt.Score,
	warnings []*core.Error,
) *Report {
	abs, pct := set.Change()
	r := &Report{
		Symbol:       symbol,
		AsOf:         set.AsOf,
		Indicators:   *set,
		Change:       abs,
		ChangePct:    pct,
		Position52W:  set.Position52W(),
		Band:         signal.ClassifyBand(*set),
		Sigma:        signal.Sigma(*set),
		Fundamentals: snap,
		Zones:        zones,
		Signal:       class,
		BuyRange:     ranges,
		QVT:          score,
	}
	for _, w := range warnings {
		r.Warnings = append(r.Warnings, newWarning(w))
	}
	return r
}

func newWarning(err *core.Error) Warning {
	w := Warning{Code: err.Code, Message: err.Message}
	if err.Cause != nil {
		w.Message = err.Message + ": " + err.Cause.Error()
	}
	return w
}

// HasWarning reports whether the report carries a warning with the code of base.
func (r *Report) HasWarning(base *core.Error) bool {
	for _, w := range r.Warnings {
		if errors.Is(&core.Error{Code: w.Code}, base) {
			return true
		}
	}
	return false
}

// ActiveRange returns the buy range of the active approach, if any.
func (r *Report) ActiveRange() *buyrange.Range {
	return r.BuyRange.ActiveAssessment().Range
}

// AddWarning attaches a non-fatal condition raised after scoring.
func (r *Report) AddWarning(err *core.Error) {
	r.Warnings = append(r.Warnings, newWarning(err))
}
