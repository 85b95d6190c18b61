package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Scoring metrics
	evaluations        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	signals            *prometheus.CounterVec
	verdicts           *prometheus.CounterVec
	qvtScore           prometheus.Histogram
	fetchFailures      *prometheus.CounterVec
	narratives         *prometheus.CounterVec

	// Scan and alert metrics
	scans         *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_evaluations_total",
			Help: "Total number of scoring passes",
		},
		[]string{"status"},
	)
	r.evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checksignal_evaluation_duration_seconds",
			Help:    "Duration of a scoring pass including data fetch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	r.signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_signals_total",
			Help: "Signal categories produced",
		},
		[]string{"category"},
	)
	r.verdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_verdicts_total",
			Help: "Discretionary verdicts of the active approach",
		},
		[]string{"mode", "verdict"},
	)
	r.qvtScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checksignal_qvt_score",
			Help:    "Distribution of composite QVT scores",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		},
	)
	r.fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_fetch_failures_total",
			Help: "Failed data fetches by collector",
		},
		[]string{"collector"},
	)
	r.narratives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_narratives_total",
			Help: "Narrative generations by provider",
		},
		[]string{"provider", "status"},
	)

	r.scans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_scans_total",
			Help: "Finished watchlist scans by outcome",
		},
		[]string{"status"},
	)
	r.alerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_alerts_total",
			Help: "Alerts fired by rule and severity",
		},
		[]string{"rule", "severity"},
	)
	r.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksignal_notifications_total",
			Help: "Alert batch deliveries by notifier",
		},
		[]string{"notifier", "status"},
	)

	reg.MustRegister(r.evaluations)
	reg.MustRegister(r.evaluationDuration)
	reg.MustRegister(r.signals)
	reg.MustRegister(r.verdicts)
	reg.MustRegister(r.qvtScore)
	reg.MustRegister(r.fetchFailures)
	reg.MustRegister(r.narratives)
	reg.MustRegister(r.scans)
	reg.MustRegister(r.alerts)
	reg.MustRegister(r.notifications)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordEvaluation records a completed scoring pass.
func (r *Registry) RecordEvaluation(category, mode, verdict string, qvt, duration float64) {
	r.evaluations.WithLabelValues("ok").Inc()
	r.evaluationDuration.Observe(duration)
	r.signals.WithLabelValues(category).Inc()
	r.verdicts.WithLabelValues(mode, verdict).Inc()
	r.qvtScore.Observe(qvt)
}

// RecordEvaluationError records a scoring pass that produced no report.
func (r *Registry) RecordEvaluationError(duration float64) {
	r.evaluations.WithLabelValues("error").Inc()
	r.evaluationDuration.Observe(duration)
}

// RecordFetchFailure records a failed collector call.
func (r *Registry) RecordFetchFailure(collector string) {
	r.fetchFailures.WithLabelValues(collector).Inc()
}

// RecordNarrative records a narrative generation attempt.
func (r *Registry) RecordNarrative(provider, status string) {
	r.narratives.WithLabelValues(provider, status).Inc()
}

// RecordScan records a finished scan job.
func (r *Registry) RecordScan(status string) {
	r.scans.WithLabelValues(status).Inc()
}

// RecordAlert records a fired alert.
func (r *Registry) RecordAlert(rule, severity string) {
	r.alerts.WithLabelValues(rule, severity).Inc()
}

// RecordNotification records one batch delivery attempt.
func (r *Registry) RecordNotification(notifier, status string) {
	r.notifications.WithLabelValues(notifier, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
