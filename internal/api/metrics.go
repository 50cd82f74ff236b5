package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retrolm_completion_requests_total",
		Help: "Completion requests by outcome",
	}, []string{"status"})

	tokensGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retrolm_tokens_generated_total",
		Help: "Total tokens sampled across all completion requests",
	})

	generateSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retrolm_generate_duration_seconds",
		Help:    "Wall-clock duration of generation runs",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
)
