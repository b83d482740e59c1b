package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	reg prometheus.Registerer

	// Run metrics
	RunsStarted   prometheus.Counter
	RunsCompleted *prometheus.CounterVec
	RunDuration   prometheus.Histogram

	// Stage metrics
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec

	// AI metrics
	ModelRequestsTotal   *prometheus.CounterVec
	ModelRequestDuration *prometheus.HistogramVec
	ModelTokensUsed      *prometheus.CounterVec

	// Test metrics
	TestsExecutedTotal *prometheus.CounterVec
}

// NewMetrics creates a metrics instance registered with reg. Pass
// prometheus.DefaultRegisterer in production; tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "testweaver"
	}
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RunsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of pipeline runs started",
			},
		),
		RunsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of pipeline runs completed",
			},
			[]string{"status"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "End-to-end pipeline run duration in seconds",
				Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
			},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		StageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Total number of stage failures",
			},
			[]string{"stage"},
		),
		ModelRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_requests_total",
				Help:      "Total number of model API requests",
			},
			[]string{"model", "status"},
		),
		ModelRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_request_duration_seconds",
				Help:      "Model API request duration in seconds",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"model"},
		),
		ModelTokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_used_total",
				Help:      "Total number of model tokens consumed",
			},
			[]string{"model"},
		),
		TestsExecutedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tests_executed_total",
				Help:      "Total number of generated tests executed",
			},
			[]string{"status"},
		),
	}
}

// Handler returns the Prometheus HTTP handler for the registry these
// metrics are registered with.
func (m *Metrics) Handler() http.Handler {
	if gatherer, ok := m.reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// RecordRunStart records a pipeline run starting.
func (m *Metrics) RecordRunStart() {
	m.RunsStarted.Inc()
}

// RecordRunComplete records a finished run with its terminal status.
func (m *Metrics) RecordRunComplete(status string, duration time.Duration) {
	m.RunsCompleted.WithLabelValues(status).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// RecordStage records a completed stage.
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordStageFailure records a stage failure.
func (m *Metrics) RecordStageFailure(stage string) {
	m.StageFailures.WithLabelValues(stage).Inc()
}

// RecordModelRequest records one model API call.
func (m *Metrics) RecordModelRequest(model, status string, duration time.Duration, tokens int) {
	m.ModelRequestsTotal.WithLabelValues(model, status).Inc()
	m.ModelRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.ModelTokensUsed.WithLabelValues(model).Add(float64(tokens))
}

// RecordTestExecution records executed test counts by status.
func (m *Metrics) RecordTestExecution(status string, count int) {
	m.TestsExecutedTotal.WithLabelValues(status).Add(float64(count))
}
