package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "7203.T", "currency": "JPY", "longName": "Toyota Motor Corporation", "shortName": "TOYOTA MOTOR CORP"},
      "timestamp": [1719792000, 1719878400, 1719964800],
      "events": {
        "dividends": {
          "1727654400": {"amount": 40, "date": 1727654400},
          "1711843200": {"amount": 35, "date": 1711843200}
        }
      },
      "indicators": {
        "quote": [{
          "open":   [3400, 3420, 3450],
          "high":   [3440, 3460, 3480],
          "low":    [3390, 3410, 3430],
          "close":  [3430, null, 3470],
          "volume": [1000000, null, 1200000]
        }]
      }
    }],
    "error": null
  }
}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	y := New()
	if err := y.Init(collector.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return y
}

func TestYahoo_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New()
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_SupportedMarkets(t *testing.T) {
	y := New()
	markets := y.SupportedMarkets()

	if len(markets) == 0 {
		t.Error("expected at least one supported market")
	}
}

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		valid  bool
	}{
		{"AAPL", true},
		{"BRK-B", true},
		{"7203.T", true},
		{"0700.HK", true},
		{"^N225", true},
		{"EURUSD=X", true},
		{"", false},
		{"AAPL;DROP", false},
		{"../etc", false},
		{strings.Repeat("A", 25), false},
	}

	for _, tc := range tests {
		err := validateSymbol(tc.symbol)
		if tc.valid && err != nil {
			t.Errorf("validateSymbol(%q) unexpected error: %v", tc.symbol, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("validateSymbol(%q) expected error", tc.symbol)
		}
	}
}

func TestYahoo_FetchHistory(t *testing.T) {
	var gotPath, gotEvents, gotInterval string
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotEvents = r.URL.Query().Get("events")
		gotInterval = r.URL.Query().Get("interval")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartJSON))
	})

	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	h, err := y.FetchHistory(context.Background(), "7203.T", end.AddDate(-1, 0, 0), end)
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}

	if gotPath != "/7203.T" {
		t.Errorf("path = %s, want /7203.T", gotPath)
	}
	if gotEvents != "div" || gotInterval != "1d" {
		t.Errorf("query events=%s interval=%s", gotEvents, gotInterval)
	}

	if h.Name != "Toyota Motor Corporation" {
		t.Errorf("name = %q", h.Name)
	}
	if h.Currency != "JPY" {
		t.Errorf("currency = %q", h.Currency)
	}

	// the session with a null close is dropped
	if len(h.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(h.Bars))
	}
	if h.Bars[0].Close != 3430 || h.Bars[1].Close != 3470 {
		t.Errorf("unexpected closes: %v, %v", h.Bars[0].Close, h.Bars[1].Close)
	}
	if h.Bars[1].Volume != 1200000 {
		t.Errorf("volume = %d", h.Bars[1].Volume)
	}
	if !h.Bars[0].Time.Before(h.Bars[1].Time) {
		t.Error("bars should be in time order")
	}

	if len(h.Dividends) != 2 {
		t.Fatalf("expected 2 dividends, got %d", len(h.Dividends))
	}
	if h.Dividends[0].Amount != 35 || h.Dividends[1].Amount != 40 {
		t.Errorf("dividends not sorted by date: %+v", h.Dividends)
	}
}

func TestYahoo_FetchHistoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr *core.Error
	}{
		{"not found", http.StatusNotFound, `{}`, core.ErrSymbolNotFound},
		{"server error", http.StatusInternalServerError, `oops`, core.ErrCollectorFailed},
		{"bad json", http.StatusOK, `{"chart":`, core.ErrCollectorFailed},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, core.ErrSymbolNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, core.ErrNoData},
		{"no closes", http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[1719792000],"indicators":{"quote":[{"close":[null]}]}}]}}`, core.ErrNoData},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := y.FetchHistory(context.Background(), "AAPL", time.Now().AddDate(-1, 0, 0), time.Now())
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %s, got %v", tc.wantErr.Code, err)
			}
		})
	}
}

func TestYahoo_FetchHistoryRejectsBadSymbol(t *testing.T) {
	called := false
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := y.FetchHistory(context.Background(), "bad symbol!", time.Now(), time.Now())
	if !errors.Is(err, core.ErrSymbolNotFound) {
		t.Errorf("expected SYMBOL_NOT_FOUND, got %v", err)
	}
	if called {
		t.Error("invalid symbols must not reach the network")
	}
}
