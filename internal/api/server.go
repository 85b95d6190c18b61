package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/checksignal/internal/api/handler"
	"github.com/newthinker/checksignal/internal/api/job"
	"github.com/newthinker/checksignal/internal/api/middleware"
	"github.com/newthinker/checksignal/internal/api/response"
	"github.com/newthinker/checksignal/internal/core"
	"github.com/newthinker/checksignal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Scan jobs kept in memory.
const (
	maxScanJobs = 100
	scanJobTTL  = time.Hour
)

// Server represents the HTTP server for checksignal.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	scans      *handler.ScanHandler
	cancel     context.CancelFunc
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string // empty disables the scrape endpoint
}

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Scorer    handler.Scorer
	Metrics   *metrics.Registry // optional
	Alerter   handler.Alerter   // optional
	Watchlist []string
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Scorer == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("server needs a scorer"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
		scans:  handler.NewScanHandler(ctx, deps.Scorer, job.NewStore(maxScanJobs, scanJobTTL), deps.Watchlist, logger),
		cancel: cancel,
	}
	if deps.Alerter != nil {
		s.scans.SetAlerter(deps.Alerter)
	}
	if deps.Metrics != nil {
		s.scans.SetMetrics(deps.Metrics)
	}
	s.setupRoutes(cfg, deps)

	var h http.Handler = s.mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }

	score := handler.NewScoreHandler(deps.Scorer, s.logger)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /api/score/{symbol}", protect(score.Score))
	s.mux.Handle("POST /api/scans", protect(s.scans.Create))
	s.mux.Handle("GET /api/scans", protect(s.scans.List))
	s.mux.Handle("GET /api/scans/{id}", protect(s.scans.Get))
	s.mux.Handle("GET /api/watchlist", protect(s.scans.Watchlist))

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// SubmitScan queues a background scan the same way POST /api/scans does.
func (s *Server) SubmitScan(symbols []string, explain bool) (job.Job, error) {
	return s.scans.Submit(symbols, explain)
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, cancels running scans and waits for
// them to record their state.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	err := s.httpServer.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.scans.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("scans still running at shutdown deadline")
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
