package indicator

import (
	"math"

	"github.com/newthinker/checksignal/internal/core"
	"gonum.org/v1/gonum/floats"
)

// Window52W is the number of trading sessions treated as one year.
const Window52W = 252

// Range52W scans the most recent window bars and returns the high and low.
// Bars with a high/low use them, close-only bars fall back to the close.
// With fewer bars than window every bar is used.
func Range52W(bars []core.OHLCV, window int) (high, low float64) {
	start := len(bars) - window
	if start < 0 {
		start = 0
	}

	highs := make([]float64, 0, len(bars)-start)
	lows := make([]float64, 0, len(bars)-start)
	for _, b := range bars[start:] {
		switch {
		case b.HasRange():
			highs = append(highs, b.High)
			lows = append(lows, b.Low)
		case b.HasClose():
			highs = append(highs, b.Close)
			lows = append(lows, b.Close)
		}
	}

	if len(highs) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Max(highs), floats.Min(lows)
}

// Position52W returns where price sits within the range, in percent (0-100).
func Position52W(price, high, low float64) float64 {
	if math.IsNaN(high) || math.IsNaN(low) || high <= low {
		return 0
	}
	pos := (price - low) / (high - low) * 100
	return math.Max(0, math.Min(100, pos))
}
