package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_ai_requests_total",
			Help: "Total number of requests to the text generation API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyweave_ai_request_duration_seconds",
			Help:    "Histogram of text generation request durations.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
		[]string{"model"},
	)
	aiTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyweave_ai_tokens",
			Help:    "Histogram of token counts per request.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model", "kind"},
	)
)

func observeRequest(model, status string, duration time.Duration) {
	aiRequestsTotal.WithLabelValues(model, status).Inc()
	aiRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func observeTokens(model string, usage Usage) {
	if usage.TotalTokens == 0 {
		return
	}
	aiTokens.WithLabelValues(model, "prompt").Observe(float64(usage.PromptTokens))
	aiTokens.WithLabelValues(model, "completion").Observe(float64(usage.CompletionTokens))
	aiTokens.WithLabelValues(model, "total").Observe(float64(usage.TotalTokens))
}
