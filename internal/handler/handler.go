package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyweave/internal/models"
	"storyweave/internal/service"
)

// StoryGenerator - сценарий генерации и история ребенка.
type StoryGenerator interface {
	Generate(ctx context.Context, req models.StoryRequest) (*models.StoryResponse, error)
	History(ctx context.Context, childID string, limit int) ([]models.StoryRecord, error)
}

// ProfileManager - профили детей.
type ProfileManager interface {
	Save(ctx context.Context, in service.ProfileInput) (*models.ChildProfile, bool, error)
	Get(ctx context.Context, childID string) (*models.ChildProfile, error)
	ListByUser(ctx context.Context, userEmail string) ([]models.ChildProfile, error)
}

// Narrator - озвучка страницы.
type Narrator interface {
	Narrate(ctx context.Context, req service.AudioRequest) (*service.AudioResult, error)
}

// Accounts - регистрация и вход родителей.
type Accounts interface {
	Signup(ctx context.Context, email, password, name string) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	GetUser(ctx context.Context, email string) (*models.User, error)
	VerifyToken(tokenString string) (*service.Claims, error)
}

var (
	_ StoryGenerator = (*service.StoryService)(nil)
	_ ProfileManager = (*service.ProfileService)(nil)
	_ Narrator       = (*service.AudioService)(nil)
	_ Accounts       = (*service.AuthService)(nil)
)

const (
	serviceName    = "StoryWeave API"
	serviceVersion = "1.0.0"
)

type Handler struct {
	stories  StoryGenerator
	profiles ProfileManager
	audio    Narrator
	auth     Accounts
	logger   *zap.Logger
}

func NewHandler(stories StoryGenerator, profiles ProfileManager, audio Narrator, auth Accounts, logger *zap.Logger) *Handler {
	return &Handler{
		stories:  stories,
		profiles: profiles,
		audio:    audio,
		auth:     auth,
		logger:   logger.Named("Handler"),
	}
}

// RegisterRoutes регистрирует маршруты в корне и под /api.
// authLimiter применяется только к маршрутам аутентификации, nil - без ограничения.
func (h *Handler) RegisterRoutes(router *gin.Engine, authLimiter gin.HandlerFunc) {
	for _, group := range []*gin.RouterGroup{router.Group(""), router.Group("/api")} {
		group.GET("/health", h.health)
		group.HEAD("/health", h.health)

		group.POST("/generate-story", h.generateStory)
		group.GET("/get-history", h.getHistory)

		group.POST("/save-profile", h.saveProfile)
		group.GET("/get-profile", h.getProfile)
		group.GET("/get-profiles", h.getProfiles)

		group.POST("/generate-audio", h.generateAudio)

		authGroup := group.Group("/auth")
		if authLimiter != nil {
			authGroup.Use(authLimiter)
		}
		{
			authGroup.POST("/signup", h.signup)
			authGroup.POST("/login", h.login)
			authGroup.GET("/user/:email", h.getUser)
			authGroup.GET("/me", h.AuthMiddleware(), h.me)
		}
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: serviceVersion,
	})
}
