package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	scoresProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_scores_processed_total",
		Help: "Total number of scores processed successfully",
	})

	scoresFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_scores_failed_total",
		Help: "Total number of scores whose transaction failed",
	})

	scoresSkippedVersion = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_scores_skipped_version_total",
		Help: "Scores skipped because they were already processed at the current version",
	})

	scoresSkippedNoStats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_scores_skipped_no_stats_total",
		Help: "Scores skipped because no user stats row exists for the ruleset",
	})

	scoresReverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_scores_reverted_total",
		Help: "Scores whose prior contribution was reverted before reapply",
	})

	sideEffectFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorestats_side_effect_failures_total",
		Help: "Post-commit side effects that failed (logged, not fatal)",
	})

	transactionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scorestats_transaction_duration_seconds",
		Help:    "Duration of the per-score processing transaction",
		Buckets: prometheus.DefBuckets,
	})
)
