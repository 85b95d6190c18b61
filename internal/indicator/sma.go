package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA calculates the trailing Simple Moving Average.
// The result is aligned with prices; entries before the first full window are NaN.
func SMA(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	sma := talib.Sma(prices, period)
	copy(result[period-1:], sma[period-1:])
	return result
}

// SlopePct returns the percent change of values over the last lookback periods:
// (v[last] - v[last-lookback]) / v[last-lookback] * 100.
func SlopePct(values []float64, lookback int) float64 {
	last := len(values) - 1
	if lookback <= 0 || last-lookback < 0 {
		return math.NaN()
	}
	base := values[last-lookback]
	curr := values[last]
	if math.IsNaN(base) || math.IsNaN(curr) || base == 0 {
		return math.NaN()
	}
	return (curr - base) / base * 100
}

// Direction is the short-term heading of a moving average.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Arrow returns a display glyph for the direction.
func (d Direction) Arrow() string {
	switch d {
	case DirectionUp:
		return "↗"
	case DirectionDown:
		return "↘"
	default:
		return "→"
	}
}

// Heading compares the last value with the one window-1 steps earlier.
// Series shorter than window+1 or with undefined ends are flat.
func Heading(values []float64, window int) Direction {
	if window < 2 || len(values) < window+1 {
		return DirectionFlat
	}
	first := values[len(values)-window]
	last := values[len(values)-1]
	if math.IsNaN(first) || math.IsNaN(last) {
		return DirectionFlat
	}
	switch diff := last - first; {
	case diff > 0:
		return DirectionUp
	case diff < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
