// Package alphavantage collects fundamental ratios from the Alpha Vantage
// company OVERVIEW endpoint.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage implements collector.FundamentalCollector
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a new Alpha Vantage collector
func New() *AlphaVantage {
	return &AlphaVantage{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *AlphaVantage) Name() string {
	return "alphavantage"
}

func (a *AlphaVantage) Init(cfg collector.Config) error {
	if cfg.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("alphavantage requires an api key"))
	}
	a.apiKey = cfg.APIKey
	if cfg.BaseURL != "" {
		a.baseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		a.client.Timeout = cfg.Timeout
	}
	return nil
}

// overview holds the OVERVIEW fields used. Alpha Vantage reports every
// number as a string and uses "None" or "-" for unknowns.
type overview struct {
	Symbol            string `json:"Symbol"`
	Name              string `json:"Name"`
	EPS               string `json:"EPS"`
	BookValue         string `json:"BookValue"`
	PERatio           string `json:"PERatio"`
	ForwardPE         string `json:"ForwardPE"`
	PriceToBookRatio  string `json:"PriceToBookRatio"`
	ReturnOnEquityTTM string `json:"ReturnOnEquityTTM"`
	ReturnOnAssetsTTM string `json:"ReturnOnAssetsTTM"`
	DividendYield     string `json:"DividendYield"`

	// set instead of the fields above on errors and throttling
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (a *AlphaVantage) FetchFundamentals(ctx context.Context, symbol string) (*fundamental.Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol cannot be empty"))
	}

	q := url.Values{}
	q.Set("function", "OVERVIEW")
	q.Set("symbol", symbol)
	q.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching overview: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var ov overview
	if err := json.NewDecoder(resp.Body).Decode(&ov); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	switch {
	case ov.ErrorMessage != "":
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("alphavantage: %s", ov.ErrorMessage))
	case ov.Note != "" || ov.Information != "":
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("alphavantage: %s%s", ov.Note, ov.Information))
	case ov.Symbol == "":
		// OVERVIEW answers unknown symbols with an empty object
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("no overview for %s", symbol))
	}

	return ov.snapshot(), nil
}

func (ov overview) snapshot() *fundamental.Snapshot {
	s := &fundamental.Snapshot{
		EPS:        parse(ov.EPS),
		BPS:        parse(ov.BookValue),
		PER:        positive(parse(ov.PERatio)),
		PERForward: positive(parse(ov.ForwardPE)),
		PBR:        positive(parse(ov.PriceToBookRatio)),
	}

	// ratios are fractions (0.15 = 15%)
	roe := parse(ov.ReturnOnEquityTTM)
	roa := parse(ov.ReturnOnAssetsTTM)
	s.ROEPct = percent(roe)
	s.ROAPct = percent(roa)
	s.DividendYieldPct = percent(positive(parse(ov.DividendYield)))

	if roe != nil && roa != nil && *roe != 0 {
		if approx := *roa / *roe; approx > 0 && approx < 1 {
			s.EquityRatioPct = fundamental.Float(approx * 100)
		}
	}
	return s
}

func parse(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "None", "-", "null":
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return fundamental.Float(v)
}

func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	return p
}

func percent(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return fundamental.Float(*p * 100)
}
