package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyweave/internal/service"
)

const claimsKey = "claims"

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		authRequestsTotal.WithLabelValues("signup", "failure").Inc()
		handleServiceError(c, err)
		return
	}
	authRequestsTotal.WithLabelValues("signup", "success").Inc()
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		abortWithError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		authRequestsTotal.WithLabelValues("login", "failure").Inc()
		handleServiceError(c, err)
		return
	}
	authRequestsTotal.WithLabelValues("login", "success").Inc()
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.auth.GetUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// AuthMiddleware проверяет Bearer-токен и кладет claims в контекст.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			h.logger.Debug("Invalid Authorization header format")
			handleServiceError(c, service.ErrInvalidToken)
			return
		}

		claims, err := h.auth.VerifyToken(parts[1])
		if err != nil {
			h.logger.Warn("Access token verification failed", zap.Error(err))
			handleServiceError(c, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) me(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*service.Claims)
	c.JSON(http.StatusOK, meResponse{Email: claims.Subject, Name: claims.Name})
}
