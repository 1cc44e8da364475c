package kv

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Commit metrics recorded by Retry. The server registers them.
var (
	CommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_commit_duration_seconds",
			Help:    "Duration of KV write transactions including retries",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 0.2, 0.5, 1, 1.5, 2},
		},
		[]string{"operation"},
	)

	LockRetries = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kv_lock_retries",
			Help:    "Number of conflict retries per write transaction",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10, 20},
		},
		[]string{"operation", "status"},
	)

	LockWaits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kv_exclusive_lock_wait_seconds",
			Help:    "Time spent acquiring exclusive write locks",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		},
	)

	CommitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kv_commit_failures_total",
			Help: "Total number of failed KV write transactions",
		},
		[]string{"operation", "error_type"},
	)
)

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{CommitDuration, LockRetries, LockWaits, CommitFailures}
}
