package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_radar_pipeline_runs_total",
		Help: "Completed pipeline runs by outcome.",
	}, []string{"status"})

	postsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threads_radar_posts_processed_total",
		Help: "Raw posts pulled into analysis runs.",
	})

	topicsIdentified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threads_radar_topics_identified_total",
		Help: "Topic summaries produced across runs.",
	})

	trendRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threads_radar_trend_records_total",
		Help: "Keyword trend records produced across runs.",
	})

	stageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threads_radar_stage_errors_total",
		Help: "Stage failures by stage name.",
	}, []string{"stage"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threads_radar_run_duration_seconds",
		Help:    "Wall-clock duration of full analysis runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
