package backlink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Candidate outcomes.
const (
	outcomeMatched        = "matched"
	outcomeExcluded       = "excluded"
	outcomeResolutionMiss = "resolution_miss"
	outcomeReadFailure    = "read_failure"
)

var (
	aggregationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ansuz_backlink_aggregations_total",
		Help: "Total backlink aggregation runs",
	})

	aggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ansuz_backlink_aggregation_duration_seconds",
		Help:    "Backlink aggregation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ansuz_backlink_candidates_total",
		Help: "Backlink candidates processed, by outcome",
	}, []string{"outcome"})
)
