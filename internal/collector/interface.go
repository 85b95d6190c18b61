package collector

import (
	"context"
	"time"

	"github.com/newthinker/checksignal/internal/core"
)

// Config holds collector configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Extra   map[string]any
}

// History is the daily price history of one symbol with the dividends paid
// over the same period.
type History struct {
	Symbol    string
	Name      string
	Currency  string
	Bars      []core.OHLCV
	Dividends []core.Dividend
}

// Collector defines the interface for price history collectors
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Lifecycle
	Init(cfg Config) error

	// Data fetching
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*History, error)
}
