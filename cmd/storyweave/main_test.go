package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storyweave/internal/config"
)

func TestNewHTTPServerLeavesWritesUnbounded(t *testing.T) {
	cfg := &config.Config{ServerPort: "5000", AITimeout: time.Second, AIMaxAttempts: 3, ImageTimeout: time.Second}

	srv := newHTTPServer(cfg, http.NewServeMux())

	assert.Equal(t, ":5000", srv.Addr)
	assert.Zero(t, srv.WriteTimeout)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}
