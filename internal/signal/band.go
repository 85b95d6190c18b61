package signal

import (
	"math"

	"github.com/newthinker/checksignal/internal/indicator"
)

// BandPosition describes where the price sits against the Bollinger Bands.
// It is informational and never feeds Classify.
type BandPosition string

const (
	BandVeryExpensive     BandPosition = "VERY_EXPENSIVE"
	BandSomewhatExpensive BandPosition = "SOMEWHAT_EXPENSIVE"
	BandSeverelyOversold  BandPosition = "SEVERELY_OVERSOLD"
	BandSomewhatOversold  BandPosition = "SOMEWHAT_OVERSOLD"
	BandNeutral           BandPosition = "NEUTRAL"
	BandUnknown           BandPosition = "UNKNOWN"
)

// ClassifyBand maps the price to its Bollinger Band zone.
func ClassifyBand(set indicator.Set) BandPosition {
	price := set.Price
	if math.IsNaN(price) || math.IsNaN(set.Std20) {
		return BandUnknown
	}

	switch {
	case price >= set.BBUpper2:
		return BandVeryExpensive
	case price >= set.BBUpper1:
		return BandSomewhatExpensive
	case price <= set.BBLower2:
		return BandSeverelyOversold
	case price <= set.BBLower1:
		return BandSomewhatOversold
	default:
		return BandNeutral
	}
}

// Sigma returns the distance of the price from MA20 in standard deviations.
func Sigma(set indicator.Set) float64 {
	if set.Std20 == 0 || math.IsNaN(set.Std20) {
		return 0
	}
	return (set.Price - set.MA20) / set.Std20
}
