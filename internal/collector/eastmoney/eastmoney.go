package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
)

const defaultBaseURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

// validSymbol matches A-share codes like 600519.SH, 600519.SS, 000001.SZ
var validSymbol = regexp.MustCompile(`^(\d{6})\.(SH|SS|SZ|BJ)$`)

// Eastmoney implements the Eastmoney daily kline collector for A-shares
type Eastmoney struct {
	client  *http.Client
	baseURL string
}

// New creates a new Eastmoney collector
func New() *Eastmoney {
	return &Eastmoney{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

func (e *Eastmoney) Name() string {
	return "eastmoney"
}

func (e *Eastmoney) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketCN}
}

func (e *Eastmoney) Init(cfg collector.Config) error {
	if cfg.BaseURL != "" {
		e.baseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		e.client.Timeout = cfg.Timeout
	}
	return nil
}

// secID converts 600519.SH to the 1.600519 form the API expects.
// Shanghai = 1, Shenzhen and Beijing = 0
func secID(symbol string) (string, error) {
	m := validSymbol.FindStringSubmatch(strings.ToUpper(symbol))
	if m == nil {
		return "", fmt.Errorf("invalid A-share symbol: %s", symbol)
	}
	market := "0"
	if m[2] == "SH" || m[2] == "SS" {
		market = "1"
	}
	return market + "." + m[1], nil
}

// FetchHistory fetches forward-adjusted daily bars in [start, end]. The
// kline API carries no dividend events.
func (e *Eastmoney) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*collector.History, error) {
	secid, err := secID(symbol)
	if err != nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, err)
	}

	q := url.Values{}
	q.Set("secid", secid)
	q.Set("klt", "101")
	q.Set("fqt", "1")
	q.Set("beg", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Data == nil {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("eastmoney has no data for %s", symbol))
	}

	bars := parseKlines(strings.ToUpper(symbol), result.Data.Klines)
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for symbol: %s", symbol))
	}
	return &collector.History{
		Symbol:   strings.ToUpper(symbol),
		Name:     result.Data.Name,
		Currency: "CNY",
		Bars:     bars,
	}, nil
}

// parseKlines reads "date,open,close,high,low,volume" lines. Malformed
// lines are skipped.
func parseKlines(symbol string, lines []string) []core.OHLCV {
	data := make([]core.OHLCV, 0, len(lines))
	for _, line := range lines {
		f := strings.Split(line, ",")
		if len(f) < 6 {
			continue
		}

		t, err := time.Parse("2006-01-02", f[0])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(f[1], 64)
		high, _ := strconv.ParseFloat(f[3], 64)
		low, _ := strconv.ParseFloat(f[4], 64)
		volume, _ := strconv.ParseInt(f[5], 10, 64)

		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   volume,
			Time:     t,
		})
	}
	return data
}

// Response types
type historyResponse struct {
	Data *historyData `json:"data"`
}

type historyData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"`
}
