package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyweave/internal/models"
	"storyweave/internal/service"
	"storyweave/internal/tts"
)

func (h *Handler) generateAudio(c *gin.Context) {
	var req generateAudioRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Text == nil {
		abortWithError(c, http.StatusBadRequest, "Missing required field: text")
		return
	}

	result, err := h.audio.Narrate(c.Request.Context(), service.AudioRequest{
		Text:    *req.Text,
		VoiceID: req.VoiceID,
		Mood:    req.Mood,
		Theme:   req.Theme,
	})
	if err != nil {
		audioRequestsTotal.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			handleServiceError(c, err)
		case errors.Is(err, tts.ErrNotConfigured):
			abortWithError(c, http.StatusServiceUnavailable, "Audio narration is not configured")
		default:
			h.logger.Error("Audio generation failed", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "Failed to generate audio")
		}
		return
	}

	audioRequestsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, result)
}
