package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/checksignal/internal/collector"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/lookup"
	"github.com/newthinker/checksignal/internal/metrics"
	"github.com/newthinker/checksignal/internal/narrative"
	"github.com/newthinker/checksignal/internal/scoring"
	"go.uber.org/zap"
)

// DefaultHistoryDays covers 52 weeks of sessions plus the MA75 warm-up.
const DefaultHistoryDays = 400

// Request describes one scoring run.
type Request struct {
	Symbol string

	// Sector overrides the configured sector of the symbol.
	Sector string

	// Fundamentals are user-supplied values. They take precedence over
	// fetched and derived ones.
	Fundamentals *fundamental.Snapshot

	// Explain attaches a narrative when a provider is configured.
	Explain bool
}

// Result pairs a symbol with its report or failure.
type Result struct {
	Symbol string
	Report *scoring.Report
	Err    error
}

// Analyzer fetches inputs, scores them and decorates the report.
type Analyzer struct {
	engine       *scoring.Engine
	logger       *zap.Logger
	prices       collector.Collector
	fundamentals collector.FundamentalCollector
	table        *lookup.Table
	narrator     *narrative.Narrator
	metrics      *metrics.Registry
	historyDays  int
	now          func() time.Time
}

// New creates an analyzer with no collaborators beyond the engine.
func New(engine *scoring.Engine, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scoring.NewEngine(scoring.DefaultParams(), logger)
	}
	return &Analyzer{
		engine:      engine,
		logger:      logger,
		table:       lookup.New(nil, nil),
		historyDays: DefaultHistoryDays,
		now:         time.Now,
	}
}

// SetPriceCollector sets the source of price history.
func (a *Analyzer) SetPriceCollector(c collector.Collector) {
	a.prices = c
}

// SetFundamentalCollector sets the optional source of fundamentals.
func (a *Analyzer) SetFundamentalCollector(c collector.FundamentalCollector) {
	a.fundamentals = c
}

// SetLookup sets the name and sector table.
func (a *Analyzer) SetLookup(t *lookup.Table) {
	if t != nil {
		a.table = t
	}
}

// SetNarrator enables narratives.
func (a *Analyzer) SetNarrator(n *narrative.Narrator) {
	a.narrator = n
}

// SetMetrics enables Prometheus recording.
func (a *Analyzer) SetMetrics(m *metrics.Registry) {
	a.metrics = m
}

// SetHistoryDays sets how many calendar days of history are requested.
func (a *Analyzer) SetHistoryDays(days int) {
	if days > 0 {
		a.historyDays = days
	}
}

// Lookup returns the name and sector table.
func (a *Analyzer) Lookup() *lookup.Table {
	return a.table
}

// Score runs one full scoring pass for req.
func (a *Analyzer) Score(ctx context.Context, req Request) (*scoring.Report, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol cannot be empty"))
	}
	if a.prices == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("no price collector configured"))
	}

	started := time.Now()
	end := a.now()
	start := end.AddDate(0, 0, -a.historyDays)

	history, err := a.prices.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		a.fetchFailed(a.prices.Name(), symbol, err)
		a.evaluationFailed(started)
		return nil, err
	}

	series, err := indicator.NewSeries(symbol, history.Bars)
	if err != nil {
		a.evaluationFailed(started)
		return nil, err
	}

	snap := a.collectFundamentals(ctx, symbol, req.Fundamentals)
	if last, ok := series.Latest(); ok {
		snap = snap.Derive(last.Close, history.Dividends, last.Time)
	}

	sector := req.Sector
	if sector == "" {
		sector = a.table.Sector(symbol)
	}
	bench, _ := a.table.Benchmark(sector)

	report, err := a.engine.Evaluate(series, &snap, bench)
	if err != nil {
		a.logger.Debug("evaluation failed", zap.String("symbol", symbol), zap.Error(err))
		a.evaluationFailed(started)
		return nil, err
	}

	report.ID = uuid.NewString()
	report.GeneratedAt = a.now().UTC()
	report.Sector = sector
	report.Name = a.table.Name(symbol)
	if report.Name == "" {
		report.Name = history.Name
	}

	if req.Explain {
		a.explain(ctx, report)
	}

	active := report.BuyRange.ActiveAssessment()
	if a.metrics != nil {
		a.metrics.RecordEvaluation(string(report.Signal.Category), string(active.Mode), string(active.Verdict),
			report.QVT.Effective(), time.Since(started).Seconds())
	}

	a.logger.Info("symbol scored",
		zap.String("symbol", symbol),
		zap.String("signal", string(report.Signal.Category)),
		zap.String("regime", string(report.BuyRange.Regime)),
		zap.String("verdict", string(active.Verdict)),
		zap.Float64("qvt", report.QVT.Effective()),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// ScoreAll scores each symbol in turn. Failures are returned per symbol and
// do not stop the run; cancelling ctx does.
func (a *Analyzer) ScoreAll(ctx context.Context, symbols []string, explain bool) []Result {
	results := make([]Result, 0, len(symbols))
	for _, s := range symbols {
		if ctx.Err() != nil {
			results = append(results, Result{Symbol: s, Err: ctx.Err()})
			continue
		}
		r, err := a.Score(ctx, Request{Symbol: s, Explain: explain})
		results = append(results, Result{Symbol: s, Report: r, Err: err})
	}
	return results
}

// collectFundamentals merges the overrides over the fetched snapshot. A
// failed fetch is logged and scoring proceeds with what is known.
func (a *Analyzer) collectFundamentals(ctx context.Context, symbol string, overrides *fundamental.Snapshot) fundamental.Snapshot {
	var snap fundamental.Snapshot
	if overrides != nil {
		snap = overrides.Normalize()
	}
	if a.fundamentals == nil {
		return snap
	}

	fetched, err := a.fundamentals.FetchFundamentals(ctx, symbol)
	if err != nil {
		a.fetchFailed(a.fundamentals.Name(), symbol, err)
		return snap
	}
	if fetched == nil {
		return snap
	}
	return snap.Merge(fetched.Normalize())
}

func (a *Analyzer) explain(ctx context.Context, report *scoring.Report) {
	if a.narrator == nil {
		report.AddWarning(core.Warnf(core.ErrNarrativeFailed, "no llm provider configured"))
		return
	}

	text, err := a.narrator.Explain(ctx, report)
	status := "ok"
	if err != nil {
		status = "error"
		a.logger.Warn("narrative failed", zap.String("symbol", report.Symbol), zap.Error(err))
		var ce *core.Error
		if !errors.As(err, &ce) {
			ce = core.WrapError(core.ErrNarrativeFailed, err)
		}
		report.AddWarning(ce)
	}
	report.Narrative = text
	if a.metrics != nil {
		a.metrics.RecordNarrative(a.narrator.ProviderName(), status)
	}
}

func (a *Analyzer) fetchFailed(source, symbol string, err error) {
	a.logger.Warn("fetch failed",
		zap.String("collector", source),
		zap.String("symbol", symbol),
		zap.Error(err),
	)
	if a.metrics != nil {
		a.metrics.RecordFetchFailure(source)
	}
}

func (a *Analyzer) evaluationFailed(started time.Time) {
	if a.metrics != nil {
		a.metrics.RecordEvaluationError(time.Since(started).Seconds())
	}
}
