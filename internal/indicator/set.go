package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/checksignal/internal/core"
)

// Indicator windows.
const (
	PeriodBand   = 20
	PeriodShort  = 25
	PeriodMiddle = 50
	PeriodLong   = 75
	PeriodRSI    = 14

	// SlopeLookback is the distance, in sessions, of the MA25 slope base.
	SlopeLookback = 4

	// MinObservations is the number of valid closes the longest MA needs.
	MinObservations = PeriodLong

	headingWindow = 3
)

// Set holds the indicators of the latest fully defined session.
type Set struct {
	AsOf         time.Time `json:"as_of"`
	Observations int       `json:"observations"`

	Price     float64 `json:"price"`
	PrevClose float64 `json:"prev_close"`

	MA20 float64 `json:"ma20"`
	MA25 float64 `json:"ma25"`
	MA50 float64 `json:"ma50"`
	MA75 float64 `json:"ma75"`

	Std20    float64 `json:"std20"`
	BBUpper1 float64 `json:"bb_upper1"`
	BBUpper2 float64 `json:"bb_upper2"`
	BBLower1 float64 `json:"bb_lower1"`
	BBLower2 float64 `json:"bb_lower2"`

	RSI14        float64 `json:"rsi14"`
	MA25SlopePct float64 `json:"ma25_slope_pct"`

	High52W float64 `json:"high_52w"`
	Low52W  float64 `json:"low_52w"`

	Heading25 Direction `json:"heading25"`
	Heading50 Direction `json:"heading50"`
	Heading75 Direction `json:"heading75"`
}

// Bands returns the Bollinger Bands of the set.
func (s Set) Bands() Bands {
	return Bands{
		Middle: s.MA20,
		StdDev: s.Std20,
		Upper1: s.BBUpper1,
		Upper2: s.BBUpper2,
		Lower1: s.BBLower1,
		Lower2: s.BBLower2,
	}
}

// Change returns the move from the previous close, absolute and in percent.
func (s Set) Change() (abs, pct float64) {
	if s.PrevClose == 0 || math.IsNaN(s.PrevClose) {
		return 0, 0
	}
	abs = s.Price - s.PrevClose
	return abs, abs / s.PrevClose * 100
}

// Position52W returns where the price sits inside the 52-week range (0-100).
func (s Set) Position52W() float64 {
	return Position52W(s.Price, s.High52W, s.Low52W)
}

// Compute derives the indicator set from a price series.
// Bars without a usable close are dropped first; at least MinObservations
// must remain.
func Compute(series Series) (*Set, error) {
	if series.Len() == 0 {
		return nil, core.WrapError(core.ErrInsufficientData, fmt.Errorf("empty price series"))
	}

	bars := series.valid()
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrMissingClose,
			fmt.Errorf("none of %d bars carries a close price", series.Len()))
	}
	if len(bars) < MinObservations {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("have %d valid closes, need %d", len(bars), MinObservations))
	}

	closes := extractCloses(bars)

	ma20 := SMA(closes, PeriodBand)
	ma25 := SMA(closes, PeriodShort)
	ma50 := SMA(closes, PeriodMiddle)
	ma75 := SMA(closes, PeriodLong)
	std20 := RollingStdDev(closes, PeriodBand)
	rsi := RSI(closes, PeriodRSI)

	row := -1
	for i := len(closes) - 1; i >= SlopeLookback; i-- {
		if defined(ma20[i], ma25[i], ma50[i], ma75[i], std20[i], rsi[i], ma25[i-SlopeLookback]) {
			row = i
			break
		}
	}
	if row < 1 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no session with every indicator defined"))
	}

	bands := NewBands(ma20[row], std20[row])
	high, low := Range52W(bars[:row+1], Window52W)

	return &Set{
		AsOf:         bars[row].Time,
		Observations: len(bars),
		Price:        closes[row],
		PrevClose:    closes[row-1],
		MA20:         ma20[row],
		MA25:         ma25[row],
		MA50:         ma50[row],
		MA75:         ma75[row],
		Std20:        bands.StdDev,
		BBUpper1:     bands.Upper1,
		BBUpper2:     bands.Upper2,
		BBLower1:     bands.Lower1,
		BBLower2:     bands.Lower2,
		RSI14:        rsi[row],
		MA25SlopePct: SlopePct(ma25[:row+1], SlopeLookback),
		High52W:      high,
		Low52W:       low,
		Heading25:    Heading(ma25[:row+1], headingWindow),
		Heading50:    Heading(ma50[:row+1], headingWindow),
		Heading75:    Heading(ma75[:row+1], headingWindow),
	}, nil
}

func defined(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
