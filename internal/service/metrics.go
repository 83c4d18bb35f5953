package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_stories_total",
			Help: "Total number of story responses by source (generated, cached, fallback).",
		},
		[]string{"profile", "source"},
	)
	generationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storyweave_generation_attempts",
			Help:    "Number of model attempts per story request.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
	storyGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyweave_story_generation_duration_seconds",
			Help:    "End-to-end duration of story generation, including retries.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"profile"},
	)
	degradedStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_degraded_steps_total",
			Help: "Best-effort steps that failed without failing the request.",
		},
		[]string{"step"},
	)
	imagesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_images_total",
			Help: "Total number of illustration requests by status.",
		},
		[]string{"status"},
	)
)

const (
	sourceGenerated = "generated"
	sourceCached    = "cached"
	sourceFallback  = "fallback"

	stepPersist  = "persist"
	stepCache    = "cache"
	stepPublish  = "publish"
	stepEmotion  = "emotion_tagging"
	stepImages   = "images"
	stepProfiles = "profile_save"
)
