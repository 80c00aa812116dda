package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names for the preview/export pipeline
const (
	MetricStageDurationSeconds = "disciplinario_export_stage_duration_seconds"
	MetricStageTotal           = "disciplinario_export_stage_total"
	MetricActiveSessions       = "disciplinario_export_active_sessions"
)

// PipelineDurationBuckets cover the render, capture and export stages
// (seconds). Headless capture routinely takes a few seconds.
var PipelineDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30}

// Stage outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// PipelineMetrics records the render, capture and export stages of each
// document export on its own Prometheus registry.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type PipelineMetrics struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	stageTotal    *prometheus.CounterVec
}

// NewPipelineMetrics creates the pipeline metrics and a registry that also
// carries the Go runtime and process collectors.
func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricStageDurationSeconds,
			Help:    "Duration of each export pipeline stage",
			Buckets: PipelineDurationBuckets,
		}, []string{"stage"}),
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricStageTotal,
			Help: "Export pipeline stage executions by outcome",
		}, []string{"stage", "outcome"}),
	}

	m.registry.MustRegister(
		m.stageDuration,
		m.stageTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveStage records one stage execution
func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	m.stageTotal.WithLabelValues(stage, outcome).Inc()
}

// RegisterSessionGauge exposes the number of live export sessions, read
// from count at scrape time.
func (m *PipelineMetrics) RegisterSessionGauge(count func() int) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: MetricActiveSessions,
		Help: "Export sessions currently held in memory",
	}, func() float64 {
		return float64(count())
	}))
}

// Registry returns the underlying registry
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
