package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Assessment outcomes used as the "outcome" label.
const (
	OutcomePassed      = "passed"
	OutcomeFailed      = "failed"
	OutcomeParseError  = "parse_error"
	OutcomeUnavailable = "oracle_unavailable"
	OutcomeError       = "error"
)

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	Assessments        *prometheus.CounterVec
	AssessmentDuration *prometheus.HistogramVec
	ProgressionPending prometheus.Counter
	Reconciled         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordsmith_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordsmith_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 45, 90},
			},
			[]string{"method", "endpoint"},
		),
		Assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordsmith_assessments_total",
				Help: "Assessments by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		AssessmentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordsmith_assessment_duration_seconds",
				Help:    "End-to-end assessment latency including oracle retries",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
			},
			[]string{"mode"},
		),
		ProgressionPending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wordsmith_progression_pending_total",
			Help: "Passed attempts whose progression write failed inline",
		}),
		Reconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordsmith_reconciled_attempts_total",
				Help: "Attempts processed by the reconciler",
			},
			[]string{"kind", "result"},
		),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.Assessments,
		m.AssessmentDuration,
		m.ProgressionPending,
		m.Reconciled,
	)
	return m
}

// ObserveAssessment records one finished assessment.
func (m *Metrics) ObserveAssessment(mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(mode, outcome).Inc()
	m.AssessmentDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// IncProgressionPending counts a progression write left for the reconciler.
func (m *Metrics) IncProgressionPending() {
	if m == nil {
		return
	}
	m.ProgressionPending.Inc()
}

// ObserveReconciled counts one reconciled attempt.
func (m *Metrics) ObserveReconciled(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.Reconciled.WithLabelValues(kind, result).Inc()
}

// Middleware records request counts and durations per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
