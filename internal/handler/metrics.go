package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_auth_requests_total",
			Help: "Total number of signup and login attempts by outcome.",
		},
		[]string{"action", "status"},
	)

	audioRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_audio_requests_total",
			Help: "Total number of narration requests by outcome.",
		},
		[]string{"status"},
	)
)
