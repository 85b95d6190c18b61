package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/newthinker/checksignal/internal/api/job"
	"github.com/newthinker/checksignal/internal/api/response"
	"github.com/newthinker/checksignal/internal/app"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/metrics"
	"github.com/newthinker/checksignal/internal/scoring"
	"go.uber.org/zap"
)

// MaxScanSymbols caps the size of one scan.
const MaxScanSymbols = 100

const maxScanBody = 64 << 10

// ScanRequest is the body of POST /api/scans. An empty symbol list scans
// the configured watchlist.
type ScanRequest struct {
	Symbols []string `json:"symbols"`
	Explain bool     `json:"explain"`
}

// Alerter evaluates alert rules over the reports of a finished scan.
type Alerter interface {
	Evaluate(ctx context.Context, reports []*scoring.Report) []core.Alert
}

// ScanHandler runs watchlist scans in the background.
type ScanHandler struct {
	ctx       context.Context
	scorer    Scorer
	alerter   Alerter
	metrics   *metrics.Registry
	store     *job.Store
	watchlist []string
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewScanHandler creates a scan handler. Background scans stop when ctx
// is cancelled.
func NewScanHandler(ctx context.Context, scorer Scorer, store *job.Store, watchlist []string, logger ...*zap.Logger) *ScanHandler {
	log := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}
	return &ScanHandler{
		ctx:       ctx,
		scorer:    scorer,
		store:     store,
		watchlist: watchlist,
		logger:    log,
	}
}

// SetAlerter enables alert evaluation at the end of each scan.
func (h *ScanHandler) SetAlerter(a Alerter) {
	h.alerter = a
}

// SetMetrics enables scan outcome counters.
func (h *ScanHandler) SetMetrics(m *metrics.Registry) {
	h.metrics = m
}

// Create handles POST /api/scans.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	body := http.MaxBytesReader(w, r.Body, maxScanBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(w, invalid("decoding body: %v", err))
		return
	}

	j, err := h.Submit(req.Symbols, req.Explain)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, j)
}

// Submit queues a scan of symbols, or of the watchlist when symbols is
// empty, and starts it in the background.
func (h *ScanHandler) Submit(symbols []string, explain bool) (job.Job, error) {
	symbols = normalizeSymbols(symbols)
	if len(symbols) == 0 {
		symbols = normalizeSymbols(h.watchlist)
	}
	if len(symbols) == 0 {
		return job.Job{}, invalid("no symbols given and no watchlist configured")
	}
	if len(symbols) > MaxScanSymbols {
		return job.Job{}, invalid("%d symbols exceed the limit of %d", len(symbols), MaxScanSymbols)
	}

	j, err := h.store.Create(symbols, explain)
	if err != nil {
		h.logger.Warn("scan rejected", zap.Int("symbols", len(symbols)), zap.Error(err))
		return job.Job{}, err
	}
	h.logger.Info("scan queued", zap.String("id", j.ID), zap.Int("symbols", len(symbols)))

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.run(j.ID, symbols, explain)
	}()
	return j, nil
}

// Get handles GET /api/scans/{id}.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

// List handles GET /api/scans.
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.store.List())
}

// Watchlist handles GET /api/watchlist.
func (h *ScanHandler) Watchlist(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, normalizeSymbols(h.watchlist))
}

// Wait blocks until every background scan has returned.
func (h *ScanHandler) Wait() {
	h.wg.Wait()
}

func (h *ScanHandler) run(id string, symbols []string, explain bool) {
	if !h.update(id, func(j *job.Job) { j.Status = job.StatusRunning }) {
		return
	}

	for _, symbol := range symbols {
		if err := h.ctx.Err(); err != nil {
			h.update(id, func(j *job.Job) {
				j.Status = job.StatusFailed
				j.Error = "scan cancelled: " + err.Error()
			})
			h.logger.Warn("scan cancelled", zap.String("id", id))
			h.recordScan(job.StatusFailed)
			return
		}

		entry := job.Entry{Symbol: symbol}
		report, err := h.scorer.Score(h.ctx, app.Request{Symbol: symbol, Explain: explain})
		if err != nil {
			detail := response.Detail(err)
			entry.Error = &detail
		} else {
			entry.Report = report
		}

		if !h.update(id, func(j *job.Job) {
			j.Entries = append(j.Entries, entry)
			j.Progress++
		}) {
			return
		}
	}

	alerts := h.alert(id)
	h.update(id, func(j *job.Job) {
		j.Alerts = alerts
		j.Status = job.StatusComplete
	})
	h.recordScan(job.StatusComplete)
	h.logger.Info("scan complete",
		zap.String("id", id),
		zap.Int("symbols", len(symbols)),
		zap.Int("alerts", len(alerts)),
	)
}

// update applies fn to the job. It reports false, after logging, when the
// job is no longer in the store.
func (h *ScanHandler) update(id string, fn func(*job.Job)) bool {
	if err := h.store.Update(id, fn); err != nil {
		h.logger.Debug("scan dropped from store", zap.String("id", id), zap.Error(err))
		return false
	}
	return true
}

func (h *ScanHandler) recordScan(status job.Status) {
	if h.metrics != nil {
		h.metrics.RecordScan(string(status))
	}
}

func (h *ScanHandler) alert(id string) []core.Alert {
	if h.alerter == nil {
		return nil
	}
	j, err := h.store.Get(id)
	if err != nil {
		return nil
	}
	reports := make([]*scoring.Report, 0, len(j.Entries))
	for _, e := range j.Entries {
		if e.Report != nil {
			reports = append(reports, e.Report)
		}
	}
	return h.alerter.Evaluate(h.ctx, reports)
}

// normalizeSymbols upper-cases, trims and de-duplicates, keeping order.
func normalizeSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
