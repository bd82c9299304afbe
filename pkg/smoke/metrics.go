package smoke

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	smokeRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "iqe_smoke_run_duration_seconds",
			Help:    "Time taken by a complete smoke-test run",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	smokeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iqe_smoke_runs_total",
			Help: "Total number of smoke-test runs",
		},
		[]string{"outcome"}, // success, job_timeout, pod_timeout or error
	)

	smokePhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iqe_smoke_phase_duration_seconds",
			Help:    "Time taken by individual run phases",
			Buckets: []float64{0.5, 1, 5, 15, 45, 120, 300},
		},
		[]string{"phase"}, // apply, wait_job, wait_pod, await_completion, collect
	)
)

func observePhase(phase string, start time.Time) {
	smokePhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
