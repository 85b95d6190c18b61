package core

import (
	"math"
	"testing"
)

func TestOHLCV_HasClose(t *testing.T) {
	tests := []struct {
		name string
		bar  OHLCV
		want bool
	}{
		{"positive close", OHLCV{Close: 10}, true},
		{"zero close", OHLCV{Close: 0}, false},
		{"negative close", OHLCV{Close: -1}, false},
		{"nan close", OHLCV{Close: math.NaN()}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bar.HasClose(); got != tc.want {
				t.Errorf("HasClose() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOHLCV_HasRange(t *testing.T) {
	if !(OHLCV{High: 11, Low: 9}).HasRange() {
		t.Error("expected bar with high/low to have a range")
	}
	if (OHLCV{Close: 10}).HasRange() {
		t.Error("close-only bar should not have a range")
	}
}

func TestMarket_Constants(t *testing.T) {
	markets := []Market{MarketUS, MarketJP, MarketHK, MarketEU}
	expected := []string{"US", "JP", "HK", "EU"}
	for i, m := range markets {
		if string(m) != expected[i] {
			t.Errorf("market %d = %s, want %s", i, m, expected[i])
		}
	}
}
