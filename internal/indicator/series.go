package indicator

import (
	"fmt"
	"sort"

	"github.com/newthinker/checksignal/internal/core"
)

// Series is a validated, chronologically ordered daily price history.
type Series struct {
	Symbol string
	bars   []core.OHLCV
}

// NewSeries orders a copy of bars by time and rejects duplicate timestamps.
func NewSeries(symbol string, bars []core.OHLCV) (Series, error) {
	sorted := make([]core.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time.Equal(sorted[i-1].Time) {
			return Series{}, core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("duplicate bar at %s", sorted[i].Time.Format("2006-01-02")))
		}
	}

	return Series{Symbol: symbol, bars: sorted}, nil
}

// Len returns the number of bars, including bars without a close.
func (s Series) Len() int {
	return len(s.bars)
}

// Bars returns a copy of the ordered bars.
func (s Series) Bars() []core.OHLCV {
	out := make([]core.OHLCV, len(s.bars))
	copy(out, s.bars)
	return out
}

// valid returns the bars that carry a usable close, in order.
func (s Series) valid() []core.OHLCV {
	out := make([]core.OHLCV, 0, len(s.bars))
	for _, b := range s.bars {
		if b.HasClose() {
			out = append(out, b)
		}
	}
	return out
}

func extractCloses(bars []core.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Latest returns the most recent bar carrying a usable close.
func (s Series) Latest() (core.OHLCV, bool) {
	for i := len(s.bars) - 1; i >= 0; i-- {
		if s.bars[i].HasClose() {
			return s.bars[i], true
		}
	}
	return core.OHLCV{}, false
}
