// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizmatch_recommendations_total",
			Help: "Total number of recommendations served, by provenance and fallback reason",
		},
		[]string{"source", "reason"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizmatch_recommendation_duration_seconds",
			Help:    "Time spent producing a recommendation",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"source"},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizmatch_recommendation_cache_hits_total",
			Help: "Gemini recommendations answered from the vector cache",
		},
	)

	GeminiTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizmatch_gemini_tokens_total",
			Help: "Total tokens reported by Gemini responses",
		},
	)
)
