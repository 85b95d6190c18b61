package core

import (
	"math"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketUS Market = "US"
	MarketJP Market = "JP"
	MarketHK Market = "HK"
	MarketEU Market = "EU"
	MarketCN Market = "CN"
)

// OHLCV represents a daily candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// HasClose reports whether the bar carries a usable close.
func (b OHLCV) HasClose() bool {
	return b.Close > 0 && !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0)
}

// HasRange reports whether the bar carries usable high and low values.
func (b OHLCV) HasRange() bool {
	return b.High > 0 && b.Low > 0 && !math.IsNaN(b.High) && !math.IsNaN(b.Low) &&
		!math.IsInf(b.High, 0) && !math.IsInf(b.Low, 0)
}

// Dividend is a single cash distribution.
type Dividend struct {
	Amount float64
	Time   time.Time
}

// Alert is a rule that matched a scored report.
type Alert struct {
	Rule     string    `json:"rule"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name,omitempty"`
	Signal   string    `json:"signal"`
	Verdict  string    `json:"verdict"`
	Price    float64   `json:"price"`
	QVT      float64   `json:"qvt"`
	Lower    float64   `json:"range_lower,omitempty"`
	Upper    float64   `json:"range_upper,omitempty"`
	AsOf     time.Time `json:"as_of"`
	FiredAt  time.Time `json:"fired_at"`
}

// HasRange reports whether the alert carries a buy range.
func (a Alert) HasRange() bool {
	return a.Upper > 0
}
