package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_jobs_completed_total",
			Help: "Total number of discovery jobs completed",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_jobs_failed_total",
			Help: "Total number of discovery jobs failed",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_job_duration_seconds",
			Help:    "Duration of discovery job processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "discovery_jobs_active",
			Help: "Number of jobs in progress per task type",
		},
		[]string{"task_type"},
	)

	CandidatesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_candidates_evaluated_total",
			Help: "Candidates passed to the eligibility filter",
		},
	)

	CandidatesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_candidates_rejected_total",
			Help: "Candidates rejected by the eligibility filter, by first failing check",
		},
		[]string{"reason"},
	)

	RankedResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_ranked_results",
			Help:    "Number of results per ranking",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	WeightsReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_weights_reloads_total",
			Help: "Ranking weight reload attempts by outcome",
		},
		[]string{"outcome"},
	)

	ActiveWeightsVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "discovery_active_weights_info",
			Help: "Set to 1 for the ranking weight-set version currently in use",
		},
		[]string{"version"},
	)
)

// SetActiveVersion moves the info gauge from one version label to the next.
func SetActiveVersion(previous, current string) {
	if previous != "" && previous != current {
		ActiveWeightsVersion.DeleteLabelValues(previous)
	}
	ActiveWeightsVersion.WithLabelValues(current).Set(1)
}

// RecordRejections adds a filter report's rejection counts.
func RecordRejections(evaluated int, rejected map[string]int) {
	CandidatesEvaluated.Add(float64(evaluated))
	for reason, n := range rejected {
		if n > 0 {
			CandidatesRejected.WithLabelValues(reason).Add(float64(n))
		}
	}
}
