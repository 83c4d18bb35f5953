package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyweave/internal/repository"
)

// bindJSON разбирает тело запроса. Пустое тело и битый JSON - 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			abortWithError(c, http.StatusBadRequest, "No data provided")
			return false
		}
		zap.L().Warn("Failed to bind request body", zap.String("path", c.Request.URL.Path), zap.Error(err))
		abortWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) generateStory(c *gin.Context) {
	var req generateStoryRequest
	if !bindJSON(c, &req) {
		return
	}
	if missing := req.missingFields(); len(missing) > 0 {
		abortWithError(c, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	resp, err := h.stories.Generate(c.Request.Context(), req.toModel())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getHistory(c *gin.Context) {
	childID := strings.TrimSpace(c.Query("child_id"))
	if childID == "" {
		abortWithError(c, http.StatusBadRequest, "child_id query parameter is required")
		return
	}

	limit := repository.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}

	stories, err := h.stories.History(c.Request.Context(), childID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{ChildID: childID, Stories: stories, Count: len(stories)})
}
