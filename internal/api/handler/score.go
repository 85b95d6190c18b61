// Package handler implements the JSON API endpoints.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/newthinker/checksignal/internal/api/response"
	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/scoring"
	"go.uber.org/zap"
)

// Scorer produces a report for one request.
type Scorer interface {
	Score(ctx context.Context, req app.Request) (*scoring.Report, error)
}

// ScoreHandler serves single-symbol scoring.
type ScoreHandler struct {
	scorer Scorer
	logger *zap.Logger
}

// NewScoreHandler creates a score handler.
func NewScoreHandler(scorer Scorer, logger ...*zap.Logger) *ScoreHandler {
	log := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}
	return &ScoreHandler{scorer: scorer, logger: log}
}

// Score handles GET /api/score/{symbol}.
//
// Query parameters: sector, explain and any fundamental field name
// (per, pbr, roe_pct, ...) to supply values the collectors lack.
func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	req, err := parseScoreRequest(r.PathValue("symbol"), r.URL.Query())
	if err != nil {
		response.Fail(w, err)
		return
	}

	report, err := h.scorer.Score(r.Context(), req)
	if err != nil {
		h.logger.Debug("score request failed", zap.String("symbol", req.Symbol), zap.Error(err))
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, report)
}

func parseScoreRequest(symbol string, q url.Values) (app.Request, error) {
	req := app.Request{
		Symbol: strings.TrimSpace(symbol),
		Sector: strings.TrimSpace(q.Get("sector")),
	}
	if req.Symbol == "" {
		return req, invalid("symbol is required")
	}

	if v := q.Get("explain"); v != "" {
		explain, err := strconv.ParseBool(v)
		if err != nil {
			return req, invalid("explain: %q is not a boolean", v)
		}
		req.Explain = explain
	}

	var snap fundamental.Snapshot
	overridden := false
	for _, name := range fundamental.FieldNames() {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, invalid("%s: %q is not a number", name, raw)
		}
		if err := snap.Set(name, v); err != nil {
			return req, core.WrapError(core.ErrInvalidRequest, err)
		}
		overridden = true
	}
	if overridden {
		req.Fundamentals = &snap
	}
	return req, nil
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrInvalidRequest, fmt.Errorf(format, args...))
}
