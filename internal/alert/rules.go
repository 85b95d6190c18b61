// Package alert turns scored reports into notifications.
package alert

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/scoring"
)

// Severities accepted by Validate.
var Severities = []string{"info", "warning", "critical"}

// clause is "metric op value"; clauses are joined with &&.
var clause = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

// Rule defines an alert rule evaluated against one report.
type Rule struct {
	Name     string `mapstructure:"name"`
	Expr     string `mapstructure:"expr"`
	Severity string `mapstructure:"severity"`
	Message  string `mapstructure:"message"`
}

type condition struct {
	metric    string
	op        string
	threshold float64
}

// Validate checks the name, severity and every clause of the expression.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert rule name is required"))
	}
	if r.Severity != "" && !contains(Severities, r.Severity) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("alert rule %s: severity %q not one of %s", r.Name, r.Severity, strings.Join(Severities, ", ")))
	}
	if _, err := r.conditions(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert rule %s: %w", r.Name, err))
	}
	return nil
}

// Evaluate reports whether every clause holds. A metric missing from
// values fails its clause.
func (r *Rule) Evaluate(values map[string]float64) bool {
	conds, err := r.conditions()
	if err != nil {
		return false
	}
	for _, c := range conds {
		v, ok := values[c.metric]
		if !ok || !c.holds(v) {
			return false
		}
	}
	return true
}

func (r *Rule) conditions() ([]condition, error) {
	if strings.TrimSpace(r.Expr) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	parts := strings.Split(r.Expr, "&&")
	conds := make([]condition, 0, len(parts))
	for _, p := range parts {
		m := clause.FindStringSubmatch(strings.TrimSpace(p))
		if len(m) != 4 {
			return nil, fmt.Errorf("cannot parse %q", strings.TrimSpace(p))
		}
		threshold, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return nil, fmt.Errorf("bad threshold in %q: %w", p, err)
		}
		if _, known := metricNames[m[1]]; !known {
			return nil, fmt.Errorf("unknown metric %q", m[1])
		}
		conds = append(conds, condition{metric: m[1], op: m[2], threshold: threshold})
	}
	return conds, nil
}

func (c condition) holds(v float64) bool {
	switch c.op {
	case ">":
		return v > c.threshold
	case "<":
		return v < c.threshold
	case ">=":
		return v >= c.threshold
	case "<=":
		return v <= c.threshold
	case "==":
		return v == c.threshold
	case "!=":
		return v != c.threshold
	default:
		return false
	}
}

// Metric names available to rule expressions.
const (
	MetricQVT            = "qvt"
	MetricQ              = "q"
	MetricV              = "v"
	MetricT              = "t"
	MetricPrice          = "price"
	MetricRSI14          = "rsi14"
	MetricOversold       = "oversold"
	MetricOverbought     = "overbought"
	MetricSignalStrength = "signal_strength"
	MetricVerdict        = "verdict"
	MetricInRange        = "in_range"
	MetricMA25SlopePct   = "ma25_slope_pct"
	MetricPosition52W    = "position_52w"
	MetricChangePct      = "change_pct"
)

var metricNames = map[string]struct{}{
	MetricQVT: {}, MetricQ: {}, MetricV: {}, MetricT: {},
	MetricPrice: {}, MetricRSI14: {},
	MetricOversold: {}, MetricOverbought: {},
	MetricSignalStrength: {}, MetricVerdict: {}, MetricInRange: {},
	MetricMA25SlopePct: {}, MetricPosition52W: {}, MetricChangePct: {},
}

// Values flattens the report into the metrics rules are written against.
// Undetermined zone scores and an unknown RSI are left out. The verdict is
// its rank, pass 0 through attractive 3.
func Values(r *scoring.Report) map[string]float64 {
	set := r.Indicators
	active := r.BuyRange.ActiveAssessment()

	v := map[string]float64{
		MetricQVT:            r.QVT.Effective(),
		MetricQ:              r.QVT.Q,
		MetricV:              r.QVT.V,
		MetricT:              r.QVT.T,
		MetricPrice:          set.Price,
		MetricSignalStrength: float64(r.Signal.Strength),
		MetricVerdict:        float64(active.Verdict.Rank()),
		MetricInRange:        0,
		MetricMA25SlopePct:   set.MA25SlopePct,
		MetricPosition52W:    r.Position52W,
		MetricChangePct:      r.ChangePct,
	}
	if !math.IsNaN(set.RSI14) {
		v[MetricRSI14] = set.RSI14
	}
	if !r.Zones.Oversold.Undetermined {
		v[MetricOversold] = float64(r.Zones.Oversold.Value)
	}
	if !r.Zones.Overbought.Undetermined {
		v[MetricOverbought] = float64(r.Zones.Overbought.Value)
	}
	if active.Range != nil && active.Range.Contains(set.Price) {
		v[MetricInRange] = 1
	}
	return v
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
