// Package signal classifies the latest session into a pullback category.
package signal

import (
	"math"

	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/zone"
)

// Category is the outcome of the pullback classifier.
type Category string

const (
	CategoryRSIUnknown        Category = "RSI_UNKNOWN"
	CategoryStrongPullback    Category = "STRONG_PULLBACK"
	CategoryModeratePullback  Category = "MODERATE_PULLBACK"
	CategoryMildPullback      Category = "MILD_PULLBACK"
	CategoryOverboughtWarning Category = "OVERBOUGHT_WARNING"
	CategoryNoSignal          Category = "NO_SIGNAL"
)

// Categories lists every category in priority order.
var Categories = []Category{
	CategoryRSIUnknown,
	CategoryStrongPullback,
	CategoryModeratePullback,
	CategoryMildPullback,
	CategoryOverboughtWarning,
	CategoryNoSignal,
}

var strengths = map[Category]int{
	CategoryStrongPullback:   3,
	CategoryModeratePullback: 2,
	CategoryMildPullback:     1,
}

var labels = map[Category]string{
	CategoryRSIUnknown:        "RSI unavailable",
	CategoryStrongPullback:    "Strong pullback: price at or under MA75 and the -1σ band with weak RSI",
	CategoryModeratePullback:  "Moderate pullback: price under the -1σ band",
	CategoryMildPullback:      "Mild pullback: price 3% under MA25 with cooling RSI",
	CategoryOverboughtWarning: "Overbought: wait for a pullback",
	CategoryNoSignal:          "No pullback signal",
}

// Strength returns the 0-3 conviction of a category.
func (c Category) Strength() int {
	return strengths[c]
}

// Label returns a human readable description.
func (c Category) Label() string {
	return labels[c]
}

// Classification is the result of Classify.
type Classification struct {
	Category Category `json:"category"`
	Strength int      `json:"strength"`
	Label    string   `json:"label"`

	// OverboughtScore is the technical-only overbought score used by the
	// warning rule.
	OverboughtScore int `json:"overbought_score"`
}

// Params tunes the classifier.
type Params struct {
	// OverboughtWarning is the overbought score at or under which the
	// session is flagged as overbought. High scores mean not overbought.
	OverboughtWarning int
}

// DefaultParams returns the standard thresholds.
func DefaultParams() Params {
	return Params{OverboughtWarning: 40}
}

// Classify maps the latest session to exactly one category. Rules are tried
// in priority order and the first match wins.
func Classify(set indicator.Set, p Params) Classification {
	ob := zone.Overbought(set.Price, set, nil)
	return classification(category(set, ob.Value, p), ob.Value)
}

func category(set indicator.Set, overbought int, p Params) Category {
	price, rsi := set.Price, set.RSI14

	switch {
	case math.IsNaN(rsi):
		return CategoryRSIUnknown
	case price <= set.MA75 && rsi < 40 && price <= set.BBLower1:
		return CategoryStrongPullback
	case (price <= set.MA75 && price < set.BBLower1) || (rsi < 30 && price < set.BBLower1):
		return CategoryModeratePullback
	case price < set.MA25*0.97 && rsi < 37.5 && price <= set.BBLower1:
		return CategoryMildPullback
	case overbought <= p.OverboughtWarning:
		return CategoryOverboughtWarning
	default:
		return CategoryNoSignal
	}
}

func classification(c Category, overbought int) Classification {
	return Classification{
		Category:        c,
		Strength:        c.Strength(),
		Label:           c.Label(),
		OverboughtScore: overbought,
	}
}
