package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyweave/internal/models"
	"storyweave/internal/service"
)

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: message})
}

func handleServiceError(c *gin.Context, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		abortWithError(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, models.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, "Invalid request data")
	case errors.Is(err, models.ErrStoryNotFound):
		abortWithError(c, http.StatusNotFound, "Story not found")
	case errors.Is(err, models.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, "Profile not found")
	case errors.Is(err, models.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, models.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, models.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, "Token is invalid or expired")
	case errors.Is(err, models.ErrUnavailable):
		zap.L().Warn("Storage unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		abortWithError(c, http.StatusServiceUnavailable, "Storage temporarily unavailable")
	default:
		zap.L().Error("Unhandled internal error in handleServiceError",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
