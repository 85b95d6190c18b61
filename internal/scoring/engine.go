// Package scoring runs the full scoring pass for one ticker.
package scoring

import (
	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/qvt"
	"github.com/newthinker/checksignal/internal/signal"
	"github.com/newthinker/checksignal/internal/zone"
	"go.uber.org/zap"
)

// Params groups the tunables of every scoring stage.
type Params struct {
	Signal  signal.Params
	Range   buyrange.Params
	Weights qvt.Weights
}

// DefaultParams returns the standard tunables.
func DefaultParams() Params {
	return Params{
		Signal:  signal.DefaultParams(),
		Range:   buyrange.DefaultParams(),
		Weights: qvt.EqualWeights(),
	}
}

// Engine evaluates price series. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	params Params
	logger *zap.Logger
}

// NewEngine creates a new scoring engine
func NewEngine(params Params, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{params: params, logger: l}
}

// Params returns the engine tunables.
func (e *Engine) Params() Params {
	return e.params
}

// Evaluate scores the latest session of series. Fundamentals and the sector
// benchmark are optional. Only an unusable series fails; absent inputs are
// reported as warnings.
func (e *Engine) Evaluate(series indicator.Series, f *fundamental.Snapshot, bench *qvt.SectorBenchmark) (*Report, error) {
	set, err := indicator.Compute(series)
	if err != nil {
		return nil, err
	}

	var snap fundamental.Snapshot
	if f != nil {
		snap = f.Normalize()
	}

	zones := zone.Compute(set.Price, *set, &snap)
	class := signal.Classify(*set, e.params.Signal)
	ranges := buyrange.Compute(*set, zones, e.params.Range)
	ranges.Contrarian.Tags = buyrange.ContrarianTags(&snap)
	score := qvt.Compute(&snap, class, ranges, bench, e.params.Weights)

	var warnings []*core.Error
	warnings = append(warnings, snap.Missing()...)
	if ranges.Regime == buyrange.RegimeAmbiguous {
		warnings = append(warnings, core.Warnf(core.ErrAmbiguousRegime,
			"ma25=%.2f ma50=%.2f ma75=%.2f", set.MA25, set.MA50, set.MA75))
	}

	report := newReport(series.Symbol, set, snap, zones, class, ranges, score, warnings)

	e.logger.Debug("scored",
		zap.String("symbol", series.Symbol),
		zap.Time("as_of", set.AsOf),
		zap.Float64("price", set.Price),
		zap.Float64("rsi", set.RSI14),
		zap.String("signal", string(class.Category)),
		zap.String("regime", string(ranges.Regime)),
		zap.Float64("qvt", score.QVT),
		zap.Int("warnings", len(warnings)),
	)

	return report, nil
}
