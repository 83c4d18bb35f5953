package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storyweave/internal/ai"
	"storyweave/internal/config"
	"storyweave/internal/handler"
	"storyweave/internal/imagegen"
	"storyweave/internal/messaging"
	"storyweave/internal/prompt"
	"storyweave/internal/service"
	"storyweave/internal/tts"
	"storyweave/pkg/logger"
	"storyweave/pkg/middleware"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, OutputPath: cfg.LogOutput})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)
	log.Info("Logger initialized",
		zap.String("log_level", cfg.LogLevel),
		zap.String("env", cfg.Env),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	// --- External Connections ---
	setupCtx, setupCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer setupCancel()

	backends, err := setupBackends(setupCtx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up storage backends", zap.Error(err))
	}
	defer backends.Close()

	publisher := setupPublisher(cfg, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("Error closing story publisher", zap.Error(err))
		}
	}()

	// --- Dependency Injection ---
	textGenerator, err := ai.NewTextGenerator(cfg, log)
	if err != nil {
		log.Fatal("Failed to create AI client", zap.Error(err))
	}
	imageGenerator, err := imagegen.NewGenerator(cfg, log)
	if err != nil {
		log.Fatal("Failed to create image generator", zap.Error(err))
	}
	promptBuilder, err := prompt.NewBuilder()
	if err != nil {
		log.Fatal("Failed to parse prompt templates", zap.Error(err))
	}

	retry := service.NewRetryController(textGenerator, ai.GenerationParams{
		Model:       cfg.StoryModel(),
		MaxTokens:   cfg.StoryMaxTokens,
		Temperature: cfg.StoryTemperature,
	}, cfg.AIMaxAttempts, cfg.AIBaseRetryDelay, log)
	tagger := service.NewEmotionTagger(textGenerator, promptBuilder, cfg.TaggingModel(), cfg.EmotionVerifyText, log)
	images := service.NewImageOrchestrator(imageGenerator, cfg.ImageConcurrency, cfg.ImageRateInterval, log)

	storyService := service.NewStoryService(promptBuilder, retry, tagger, images,
		backends.Store.Stories, backends.Store.Cache, publisher,
		service.StoryServiceConfig{
			CacheEnabled:          cfg.CacheEnabled,
			CacheTTL:              cfg.CacheTTL,
			EmotionTaggingEnabled: cfg.EmotionTaggingEnabled,
			DemoMode:              cfg.DemoMode,
		}, log)
	profileService := service.NewProfileService(backends.Store.Profiles, log)
	synthesizer := tts.NewElevenLabsClient(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.TTSModel,
		&http.Client{Timeout: cfg.TTSTimeout}, log)
	audioService := service.NewAudioService(synthesizer, log)
	authService := service.NewAuthService(backends.Store.Users, cfg.JWTSecret, cfg.PasswordPepper, cfg.AccessTokenTTL, log)

	apiHandler := handler.NewHandler(storyService, profileService, audioService, authService, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	apiHandler.RegisterRoutes(router, newAuthRateLimiter(cfg, backends, log))

	// --- Start HTTP Server ---
	srv := newHTTPServer(cfg, router)

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}

// newAuthRateLimiter ограничивает маршруты /auth по IP. Счетчики в Redis, если он подключен.
func newAuthRateLimiter(cfg *config.Config, backends *Backends, log *zap.Logger) gin.HandlerFunc {
	if cfg.AuthRateLimit <= 0 {
		log.Info("Auth rate limiting disabled")
		return nil
	}

	var store ratelimit.Store
	if backends.Redis != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: backends.Redis,
			Rate:        time.Minute,
			Limit:       uint(cfg.AuthRateLimit),
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: uint(cfg.AuthRateLimit),
		})
	}
	log.Info("Auth rate limiter initialized",
		zap.Int("limit_per_minute", cfg.AuthRateLimit),
		zap.Bool("redis", backends.Redis != nil),
	)

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.Time("reset_time", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

func setupPublisher(cfg *config.Config, log *zap.Logger) messaging.StoryPublisher {
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set, story events are disabled")
		return messaging.NoopPublisher{}
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQURL, cfg.ConnectMaxRetries, cfg.ConnectRetryDelay, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, story events are disabled", zap.Error(err))
		return messaging.NoopPublisher{}
	}
	publisher, err := messaging.NewRabbitMQStoryPublisher(conn, log)
	if err != nil {
		_ = conn.Close()
		log.Warn("Failed to create story publisher, story events are disabled", zap.Error(err))
		return messaging.NoopPublisher{}
	}
	return &connPublisher{RabbitMQStoryPublisher: publisher, conn: conn}
}

// newHTTPServer собирает http.Server. WriteTimeout не задан: длительность генерации
// ограничивают таймауты клиентов модели, картинок и озвучки.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
