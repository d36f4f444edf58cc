package metrics

import (
	"time"
)

// All recording helpers are nil-safe so components can run without
// instrumentation in tests.

// RecordPipelineRun records a completed (or rejected) pipeline run
func (r *Registry) RecordPipelineRun(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.PipelineRunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		r.PipelineRunDuration.Observe(duration.Seconds())
		r.PipelineLastSuccess.SetToCurrentTime()
	}
}

// RecordPipelineStage records one pipeline stage's duration
func (r *Registry) RecordPipelineStage(stage string, duration time.Duration) {
	if r == nil {
		return
	}
	r.PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetProjectionSize records the size of the current projection
func (r *Registry) SetProjectionSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.ProjectionNodes.Set(float64(nodes))
	r.ProjectionEdges.Set(float64(edges))
}

// SetAnalyticsResults records algorithm-level outcomes of a pipeline run
func (r *Registry) SetAnalyticsResults(communities, pagerankIterations int) {
	if r == nil {
		return
	}
	r.CommunitiesDetected.Set(float64(communities))
	r.PageRankIterations.Set(float64(pagerankIterations))
}

// RecordDetector records a pattern detector evaluation
func (r *Registry) RecordDetector(detector, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.DetectorEvaluationsTotal.WithLabelValues(detector, outcome).Inc()
	r.DetectorDuration.WithLabelValues(detector).Observe(duration.Seconds())
}

// RecordExplanation records a completed fraud explanation
func (r *Registry) RecordExplanation(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.ExplanationsTotal.WithLabelValues(status).Inc()
	r.ExplanationDuration.Observe(duration.Seconds())
}
