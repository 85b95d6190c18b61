package indicator

import (
	"gonum.org/v1/gonum/stat"
)

// RollingStdDev calculates the trailing sample standard deviation (n-1 denominator).
// Entries before the first full window are NaN.
func RollingStdDev(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period < 2 || len(prices) < period {
		return result
	}
	for i := period - 1; i < len(prices); i++ {
		result[i] = stat.StdDev(prices[i-period+1:i+1], nil)
	}
	return result
}

// Bands holds Bollinger Bands at one and two standard deviations.
type Bands struct {
	Middle float64 `json:"middle"`
	StdDev float64 `json:"std_dev"`
	Upper1 float64 `json:"upper1"`
	Upper2 float64 `json:"upper2"`
	Lower1 float64 `json:"lower1"`
	Lower2 float64 `json:"lower2"`
}

// NewBands derives the ±1σ and ±2σ bands around a mean.
func NewBands(mean, stdDev float64) Bands {
	return Bands{
		Middle: mean,
		StdDev: stdDev,
		Upper1: mean + stdDev,
		Upper2: mean + 2*stdDev,
		Lower1: mean - stdDev,
		Lower2: mean - 2*stdDev,
	}
}
