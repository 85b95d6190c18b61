package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"scored", http.StatusOK, "2xx"},
		{"unknown symbol", http.StatusNotFound, "4xx"},
		{"collector down", http.StatusBadGateway, "5xx"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.WriteHeader(http.StatusTeapot) // ignored
			})

			w := httptest.NewRecorder()
			HTTPMiddleware(reg)(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/score/7203.T", nil))

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, 1.0, counterValue(t, reg, "http_requests_total",
				map[string]string{"path": "/api/score/7203.T", "status": tc.want}))
			require.NotNil(t, series(t, reg, "http_request_duration_seconds", map[string]string{"path": "/api/score/7203.T"}))
		})
	}
}

func TestHTTPMiddleware_TracksInFlight(t *testing.T) {
	reg := NewRegistry()

	during := -1.0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = series(t, reg, "http_requests_in_flight", nil).GetGauge().GetValue()
	})

	HTTPMiddleware(reg)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/scans", nil))

	assert.Equal(t, 1.0, during)
	assert.Equal(t, 0.0, series(t, reg, "http_requests_in_flight", nil).GetGauge().GetValue())
}

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	reg := NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/score/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := HTTPMiddleware(reg)(mux)

	for _, sym := range []string{"AAPL", "MSFT", "7203.T"} {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/score/"+sym, nil))
	}

	mf := family(t, reg, "http_requests_total")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1, "per-symbol paths share one series")
	assert.Equal(t, 3.0, counterValue(t, reg, "http_requests_total",
		map[string]string{"path": "GET /api/score/{symbol}"}))
}
