package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judge_assignments_total",
			Help: "Judge assignments handed out, by how they were obtained",
		},
		[]string{"source"},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evaluations_total",
			Help: "Evaluations stored, by target type",
		},
		[]string{"target_type"},
	)

	EvaluationScoreHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evaluation_total_score",
			Help:    "Distribution of normalized evaluation totals",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"scoring"},
	)

	FinalizedMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finalized_matches_total",
			Help: "Matches closed by finalize, by outcome",
		},
		[]string{"strategy", "outcome"},
	)

	LeaderboardRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaderboard_refresh_duration_seconds",
			Help:    "Time spent rebuilding leaderboard views",
			Buckets: prometheus.DefBuckets,
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
