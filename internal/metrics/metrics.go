// Package metrics exposes Prometheus instruments for generation jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder groups the job instruments. A nil *Recorder is valid and records
// nothing, so library callers that do not care about metrics pay nothing.
type Recorder struct {
	JobsCompleted    *prometheus.CounterVec
	JobsFailed       *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	JobsActive       prometheus.Gauge
	WorkspacesActive prometheus.Gauge
}

// New registers the instruments on reg. Passing the same registerer twice
// panics, as with promauto.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		JobsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvgen_jobs_completed_total",
				Help: "Total number of generation jobs that produced a PDF",
			},
			[]string{"variant"},
		),
		JobsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cvgen_jobs_failed_total",
				Help: "Total number of generation jobs that failed",
			},
			[]string{"variant", "code"},
		),
		JobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cvgen_job_duration_seconds",
				Help:    "Duration of generation jobs in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"variant"},
		),
		JobsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "cvgen_jobs_active",
			Help: "Number of generation jobs in flight",
		}),
		WorkspacesActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "cvgen_workspaces_active",
			Help: "Number of build workspaces currently on disk",
		}),
	}
}

// JobStarted marks a job in flight.
func (r *Recorder) JobStarted() {
	if r == nil {
		return
	}
	r.JobsActive.Inc()
}

// JobSucceeded records a finished job.
func (r *Recorder) JobSucceeded(variant string, d time.Duration) {
	if r == nil {
		return
	}
	r.JobsActive.Dec()
	r.JobsCompleted.WithLabelValues(variant).Inc()
	r.JobDuration.WithLabelValues(variant).Observe(d.Seconds())
}

// JobFailed records a failed job with its stable error code.
func (r *Recorder) JobFailed(variant, code string, d time.Duration) {
	if r == nil {
		return
	}
	r.JobsActive.Dec()
	r.JobsFailed.WithLabelValues(variant, code).Inc()
	r.JobDuration.WithLabelValues(variant).Observe(d.Seconds())
}

// WorkspaceAcquired counts a staged workspace.
func (r *Recorder) WorkspaceAcquired() {
	if r == nil {
		return
	}
	r.WorkspacesActive.Inc()
}

// WorkspaceReleased uncounts a removed workspace.
func (r *Recorder) WorkspaceReleased() {
	if r == nil {
		return
	}
	r.WorkspacesActive.Dec()
}
