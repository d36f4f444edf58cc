// Package metrics exposes Prometheus instrumentation for the fraud engine.
// The Registry is constructor-injected into consumers; there is no global
// mutable default.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// Analytics pipeline
	PipelineRunsTotal      *prometheus.CounterVec
	PipelineRunDuration    prometheus.Histogram
	PipelineStageDuration  *prometheus.HistogramVec
	ProjectionNodes        prometheus.Gauge
	ProjectionEdges        prometheus.Gauge
	PipelineLastSuccess    prometheus.Gauge
	CommunitiesDetected    prometheus.Gauge
	PageRankIterations     prometheus.Gauge

	// Pattern detectors
	DetectorEvaluationsTotal *prometheus.CounterVec
	DetectorDuration         *prometheus.HistogramVec

	// Explanation aggregator
	ExplanationsTotal   *prometheus.CounterVec
	ExplanationDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all engine metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{registry: reg}
	r.initPipelineMetrics()
	r.initDetectorMetrics()
	r.initExplanationMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) initPipelineMetrics() {
	r.PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudgraph_pipeline_runs_total",
		Help: "Analytics pipeline runs by outcome (success, failure, busy)",
	}, []string{"status"})

	r.PipelineRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudgraph_pipeline_run_duration_seconds",
		Help:    "End-to-end analytics pipeline run duration",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	r.PipelineStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fraudgraph_pipeline_stage_duration_seconds",
		Help:    "Per-stage analytics pipeline duration",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage"})

	r.ProjectionNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fraudgraph_projection_nodes",
		Help: "Accounts in the most recent projection",
	})

	r.ProjectionEdges = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fraudgraph_projection_edges",
		Help: "Transactions in the most recent projection",
	})

	r.PipelineLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fraudgraph_pipeline_last_success_timestamp_seconds",
		Help: "Unix time of the last fully successful pipeline run",
	})

	r.CommunitiesDetected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fraudgraph_communities_detected",
		Help: "Communities found by the most recent pipeline run",
	})

	r.PageRankIterations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fraudgraph_pagerank_iterations",
		Help: "Iterations performed by the most recent PageRank run",
	})

	r.registry.MustRegister(
		r.PipelineRunsTotal,
		r.PipelineRunDuration,
		r.PipelineStageDuration,
		r.ProjectionNodes,
		r.ProjectionEdges,
		r.PipelineLastSuccess,
		r.CommunitiesDetected,
		r.PageRankIterations,
	)
}

func (r *Registry) initDetectorMetrics() {
	r.DetectorEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudgraph_detector_evaluations_total",
		Help: "Pattern detector evaluations by detector and outcome (alert, clear, error)",
	}, []string{"detector", "outcome"})

	r.DetectorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fraudgraph_detector_duration_seconds",
		Help:    "Pattern detector evaluation duration",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"detector"})

	r.registry.MustRegister(r.DetectorEvaluationsTotal, r.DetectorDuration)
}

func (r *Registry) initExplanationMetrics() {
	r.ExplanationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudgraph_explanations_total",
		Help: "Fraud explanations by terminal status (FRAUD, CLEARED, NOT_FOUND)",
	}, []string{"status"})

	r.ExplanationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudgraph_explanation_duration_seconds",
		Help:    "End-to-end fraud explanation duration",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	r.registry.MustRegister(r.ExplanationsTotal, r.ExplanationDuration)
}
