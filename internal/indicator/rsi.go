package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// rsiEpsilon stands in for a zero average loss.
const rsiEpsilon = 1e-10

// RSI calculates the Relative Strength Index using simple rolling means of
// clipped price deltas (not Wilder smoothing). Values are aligned with prices;
// the first period entries are NaN. An average loss below epsilon yields 100.
func RSI(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) < period+1 {
		return result
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := talib.Sma(gains, period)
	avgLoss := talib.Sma(losses, period)

	// avgGain[j] covers deltas ending at price index j+1
	for j := period - 1; j < len(gains); j++ {
		result[j+1] = rsiValue(avgGain[j], avgLoss[j])
	}
	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss < rsiEpsilon {
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	return math.Max(0, math.Min(100, rsi))
}
