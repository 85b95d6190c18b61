package lixinger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLixinger(t *testing.T, handler http.HandlerFunc) *Lixinger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	l := New()
	require.NoError(t, l.Init(collector.Config{APIKey: "test-key", BaseURL: srv.URL}))
	return l
}

func TestLixinger_ImplementsFundamentalCollector(t *testing.T) {
	var _ collector.FundamentalCollector = (*Lixinger)(nil)
}

func TestLixinger_Init_RequiresAPIKey(t *testing.T) {
	l := New()
	err := l.Init(collector.Config{})
	assert.True(t, errors.Is(err, core.ErrConfigMissing), "got %v", err)
	assert.Equal(t, "lixinger", l.Name())
	assert.Equal(t, []core.Market{core.MarketCN}, l.SupportedMarkets())
}

func TestLixinger_FetchFundamentals(t *testing.T) {
	l := newTestLixinger(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cn/company/fundamental/non_financial", r.URL.Path)

		var payload struct {
			Token      string   `json:"token"`
			StockCodes []string `json:"stockCodes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test-key", payload.Token)
		assert.Equal(t, []string{"600519"}, payload.StockCodes)

		w.Write([]byte(`{"code":1,"message":"success","data":[
			{"stockCode":"600519","pe_ttm":24.6,"pb":-1,"roe_ttm":0.31,"dividend_yield_ratio":0.025}
		]}`))
	})

	snap, err := l.FetchFundamentals(context.Background(), "600519.SH")
	require.NoError(t, err)

	per, _ := fundamental.Value(snap.PER)
	roe, _ := fundamental.Value(snap.ROEPct)
	yield, _ := fundamental.Value(snap.DividendYieldPct)
	assert.Equal(t, 24.6, per)
	assert.InDelta(t, 31.0, roe, 1e-9)
	assert.InDelta(t, 2.5, yield, 1e-9)
	assert.Nil(t, snap.PBR, "non-positive PB is unknown")
	assert.Nil(t, snap.EquityRatioPct)
}

func TestLixinger_FetchFundamentalsErrors(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		status int
		body   string
		want   *core.Error
	}{
		{"not an A-share", "AAPL", http.StatusOK, "", core.ErrSymbolNotFound},
		{"empty data", "600519.SH", http.StatusOK, `{"code":1,"data":[]}`, core.ErrSymbolNotFound},
		{"api error", "600519.SH", http.StatusOK, `{"code":-1,"message":"invalid token"}`, core.ErrCollectorFailed},
		{"server error", "600519.SH", http.StatusInternalServerError, "", core.ErrCollectorFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLixinger(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := l.FetchFundamentals(context.Background(), tc.symbol)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}
