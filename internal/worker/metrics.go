package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memoir_worker_tasks_total",
			Help: "Total number of processed full-generation tasks.",
		},
		[]string{"status"},
	)
	taskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memoir_worker_task_duration_seconds",
			Help:    "Histogram of full-generation task durations.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)
