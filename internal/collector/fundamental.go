package collector

import (
	"context"

	"github.com/newthinker/checksignal/internal/fundamental"
)

// FundamentalCollector defines interface for fundamental data collectors
type FundamentalCollector interface {
	Name() string
	Init(cfg Config) error

	// FetchFundamentals returns the latest known ratios. Fields the
	// provider does not report stay nil.
	FetchFundamentals(ctx context.Context, symbol string) (*fundamental.Snapshot, error)
}

// FundamentalRegistry manages fundamental collectors by name
type FundamentalRegistry struct {
	*set[FundamentalCollector]
}

// NewFundamentalRegistry creates a new fundamental collector registry
func NewFundamentalRegistry() *FundamentalRegistry {
	return &FundamentalRegistry{newSet[FundamentalCollector]("fundamentals")}
}
