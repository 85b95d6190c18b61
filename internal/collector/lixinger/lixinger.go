// Package lixinger collects A-share valuation ratios from the Lixinger
// open API.
package lixinger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
)

const defaultBaseURL = "https://open.lixinger.com/api"

var validSymbol = regexp.MustCompile(`^(\d{6})\.(SH|SS|SZ|BJ)$`)

// Lixinger implements collector.FundamentalCollector
type Lixinger struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a new Lixinger collector
func New() *Lixinger {
	return &Lixinger{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *Lixinger) Name() string { return "lixinger" }

func (l *Lixinger) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketCN}
}

func (l *Lixinger) Init(cfg collector.Config) error {
	if cfg.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("lixinger requires an api key"))
	}
	l.apiKey = cfg.APIKey
	if cfg.BaseURL != "" {
		l.baseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		l.client.Timeout = cfg.Timeout
	}
	return nil
}

// stockCode converts 600519.SH to 600519
func stockCode(symbol string) (string, error) {
	m := validSymbol.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(symbol)))
	if m == nil {
		return "", fmt.Errorf("invalid A-share symbol: %s", symbol)
	}
	return m[1], nil
}

// FetchFundamentals fetches the latest valuation of a non-financial company.
func (l *Lixinger) FetchFundamentals(ctx context.Context, symbol string) (*fundamental.Snapshot, error) {
	code, err := stockCode(symbol)
	if err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}

	payload := map[string]any{
		"token":      l.apiKey,
		"stockCodes": []string{code},
		"metrics":    []string{"pe_ttm", "pb", "roe_ttm", "dividend_yield_ratio"},
	}

	resp, err := l.postJSON(ctx, l.baseURL+"/cn/company/fundamental/non_financial", payload)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("lixinger has no data for %s", symbol))
	}
	return resp.Data[0].snapshot(), nil
}

type lixingerResponse struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Data    []lixingerMetric `json:"data"`
}

// lixingerMetric holds the ratios used. Missing values decode as nil.
type lixingerMetric struct {
	StockCode          string   `json:"stockCode"`
	PETTM              *float64 `json:"pe_ttm"`
	PB                 *float64 `json:"pb"`
	ROETTM             *float64 `json:"roe_ttm"`
	DividendYieldRatio *float64 `json:"dividend_yield_ratio"`
}

// ratios are fractions (0.15 = 15%)
func (m lixingerMetric) snapshot() *fundamental.Snapshot {
	return &fundamental.Snapshot{
		PER:              positive(m.PETTM),
		PBR:              positive(m.PB),
		ROEPct:           percent(m.ROETTM),
		DividendYieldPct: percent(positive(m.DividendYieldRatio)),
	}
}

func (l *Lixinger) postJSON(ctx context.Context, url string, payload any) (*lixingerResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching fundamentals: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result lixingerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Code != 1 && result.Code != 0 {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("lixinger: %s", result.Message))
	}
	return &result, nil
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
