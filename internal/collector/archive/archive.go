// Package archive serves price history from CSV files kept in an archive
// storage backend, as written by `checksignal fetch`.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
	store "github.com/newthinker/checksignal/internal/storage/archive"
)

// Archive implements collector.Collector over an archive storage backend.
type Archive struct {
	storage store.Storage
}

// New creates an archive collector reading from s.
func New(s store.Storage) *Archive {
	return &Archive{storage: s}
}

func (a *Archive) Name() string {
	return "archive"
}

// SupportedMarkets is every market; the archive holds whatever was fetched.
func (a *Archive) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketJP, core.MarketHK, core.MarketEU}
}

func (a *Archive) Init(cfg collector.Config) error {
	if a.storage == nil {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive collector has no storage"))
	}
	return nil
}

// FetchHistory reads the symbol's CSV and keeps the bars and dividends
// within [start, end]. A zero start or end leaves that side open.
func (a *Archive) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*collector.History, error) {
	if a.storage == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive collector has no storage"))
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol cannot be empty"))
	}

	data, err := a.storage.Read(ctx, store.PriceKey(symbol))
	if err != nil {
		if errors.Is(err, core.ErrNoData) {
			return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s is not in the archive", symbol))
		}
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}

	h, err := Decode(symbol, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	h.Bars = clip(h.Bars, start, end, func(b core.OHLCV) time.Time { return b.Time })
	h.Dividends = clip(h.Dividends, start, end, func(d core.Dividend) time.Time { return d.Time })
	if len(h.Bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no archived bars for %s in range", symbol))
	}
	return h, nil
}

// Symbols lists the symbols held in the archive.
func (a *Archive) Symbols(ctx context.Context) ([]string, error) {
	keys, err := a.storage.List(ctx, store.PricePrefix)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := store.SymbolFromKey(k); ok {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// Save writes h to the archive at the symbol's price key.
func Save(ctx context.Context, s store.Storage, h *collector.History) error {
	data, err := Encode(h)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", h.Symbol, err)
	}
	return s.Write(ctx, store.PriceKey(h.Symbol), data)
}

func clip[T any](items []T, start, end time.Time, at func(T) time.Time) []T {
	out := items[:0:0]
	for _, it := range items {
		t := at(it)
		if !start.IsZero() && t.Before(start) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}
		out = append(out, it)
	}
	return out
}
