package narrative

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/checksignal/internal/buyrange"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/fundamental"
	"github.com/newthinker/checksignal/internal/indicator"
	"github.com/newthinker/checksignal/internal/qvt"
	"github.com/newthinker/checksignal/internal/scoring"
	"github.com/newthinker/checksignal/internal/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeProvider struct {
	reply string
	err   error
	got   ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResponse{Content: f.reply, FinishReason: "stop"}, nil
}

func sampleReport() *scoring.Report {
	qc := 48.0
	return &scoring.Report{
		Symbol: "7203.T",
		Name:   "Toyota Motor",
		Sector: "Automobiles",
		AsOf:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Indicators: indicator.Set{
			Price: 105, MA25: 104, MA50: 102, MA75: 100, RSI14: 55,
			High52W: 130, Low52W: 90,
		},
		Band:         signal.BandNeutral,
		Fundamentals: fundamental.Snapshot{PER: fundamental.Float(11.5)},
		Signal:       signal.Classification{Category: signal.CategoryNoSignal, Label: signal.CategoryNoSignal.Label()},
		BuyRange: buyrange.Result{
			Regime: buyrange.RegimeTrend,
			Active: buyrange.ModeTrend,
			Trend: buyrange.Assessment{
				Mode:          buyrange.ModeTrend,
				Preconditions: make([]buyrange.Precondition, 3),
				Met:           3,
				Verdict:       buyrange.VerdictAttractive,
				Range:         &buyrange.Range{Center: 104, Upper: 107.12, Lower: 99.5},
			},
			Contrarian: buyrange.Assessment{
				Mode:          buyrange.ModeContrarian,
				Preconditions: make([]buyrange.Precondition, 3),
				Verdict:       buyrange.VerdictPass,
				Tags:          []string{buyrange.TagHighDividend},
			},
		},
		QVT: qvt.Score{
			Q: 40, V: 70, T: 55, QVT: 55, QVTCorrected: &qc, Rating: "compare with peers",
			Remarks: []qvt.Remark{{Metric: "PER", Text: "cheap"}},
		},
		Warnings: []scoring.Warning{{Code: "MISSING_INPUT", Message: "input not available: pbr unknown"}},
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(sampleReport())

	for _, want := range []string{
		"Toyota Motor (7203.T)",
		"Sector: Automobiles",
		"As of: 2025-03-14",
		"Price: 105.00",
		"RSI14: 55.0",
		"Signal: " + signal.CategoryNoSignal.Label(),
		"buy range 99.50 to 107.12 (center 104.00), price inside",
		"tags: high dividend",
		"sector-corrected 48.0",
		"rating: compare with peers",
		"- PER: cheap",
		"Fundamentals: PER 11.50",
		"pbr unknown",
	} {
		assert.Contains(t, p, want)
	}
	assert.NotContains(t, p, "forward PER", "unknown fundamentals are left out")
}

func TestNarrator_Explain(t *testing.T) {
	fp := &fakeProvider{reply: "  The stock is in a steady uptrend.\n"}
	n := New(fp, zaptest.NewLogger(t))

	text, err := n.Explain(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "The stock is in a steady uptrend.", text)
	assert.Equal(t, "fake", n.ProviderName())
	assert.Equal(t, systemPrompt, fp.got.SystemPrompt)
	require.Len(t, fp.got.Messages, 1)
	assert.Equal(t, "user", fp.got.Messages[0].Role)
	assert.Contains(t, fp.got.Messages[0].Content, "7203.T")
}

func TestNarrator_Failures(t *testing.T) {
	tests := []struct {
		name string
		fp   *fakeProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("rate limited")}},
		{"empty reply", &fakeProvider{reply: "   "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.fp).Explain(context.Background(), sampleReport())
			assert.True(t, errors.Is(err, core.ErrNarrativeFailed), "got %v", err)
		})
	}

	_, err := New(&fakeProvider{reply: "x"}).Explain(context.Background(), nil)
	assert.True(t, errors.Is(err, core.ErrNarrativeFailed))
}
