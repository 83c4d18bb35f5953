package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"storyweave/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Допустимые значения перечислимых настроек.
const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"

	ImageProviderOpenAI   = "openai"
	ImageProviderHTTP     = "http"
	ImageProviderDisabled = "disabled"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
)

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	LogOutput   string `envconfig:"LOG_OUTPUT" default:"stdout"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"5000"`

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://localhost:5174"`
	FrontendURL        string `envconfig:"FRONTEND_URL"`

	// Text generation
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"90s"`
	ModelTier        string        `envconfig:"MODEL_TIER" default:"cheap"`
	ModelCheap       string        `envconfig:"MODEL_CHEAP" default:"gpt-4o-mini"`
	ModelMedium      string        `envconfig:"MODEL_MEDIUM" default:"gpt-4.1-mini"`
	ModelQuality     string        `envconfig:"MODEL_QUALITY" default:"gpt-4o"`
	ModelExpensive   string        `envconfig:"MODEL_EXPENSIVE" default:"gpt-4.1"`
	StoryMaxTokens   int           `envconfig:"STORY_MAX_TOKENS" default:"1500"`
	StoryTemperature float64       `envconfig:"STORY_TEMPERATURE" default:"0.7"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	DemoMode         bool          `envconfig:"DEMO_MODE" default:"false"`
	// Секрет без envconfig тега: env AI_API_KEY или /run/secrets/ai_api_key
	AIAPIKey string `ignored:"true"`

	// Emotion tagging
	EmotionTaggingEnabled bool   `envconfig:"EMOTION_TAGGING_ENABLED" default:"true"`
	EmotionVerifyText     bool   `envconfig:"EMOTION_VERIFY_TEXT" default:"true"`
	EmotionModel          string `envconfig:"EMOTION_MODEL"`

	// Images
	ImageProvider     string        `envconfig:"IMAGE_PROVIDER" default:"openai"`
	ImageModel        string        `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	ImageSize         string        `envconfig:"IMAGE_SIZE" default:"1024x1024"`
	ImageServerURL    string        `envconfig:"IMAGE_SERVER_URL" default:"http://localhost:8000/generate"`
	ImageTimeout      time.Duration `envconfig:"IMAGE_TIMEOUT" default:"120s"`
	ImageConcurrency  int           `envconfig:"IMAGE_CONCURRENCY" default:"2"`
	ImageRateInterval time.Duration `envconfig:"IMAGE_RATE_INTERVAL" default:"1s"`

	// Text-to-speech
	ElevenLabsBaseURL string        `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	TTSModel          string        `envconfig:"TTS_MODEL" default:"eleven_turbo_v2_5"`
	TTSTimeout        time.Duration `envconfig:"TTS_TIMEOUT" default:"60s"`
	ElevenLabsAPIKey  string        `ignored:"true"`

	// Storage
	StoreBackend          string        `envconfig:"STORE_BACKEND" default:"memory"`
	CacheBackend          string        `envconfig:"CACHE_BACKEND" default:"memory"`
	StoreFallbackToMemory bool          `envconfig:"STORE_FALLBACK_TO_MEMORY" default:"true"`
	CacheEnabled          bool          `envconfig:"CACHE_ENABLED" default:"true"`
	CacheTTL              time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	ConnectMaxRetries     int           `envconfig:"CONNECT_MAX_RETRIES" default:"10"`
	ConnectRetryDelay     time.Duration `envconfig:"CONNECT_RETRY_DELAY" default:"3s"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"storyweave"`
	DBName        string        `envconfig:"DB_NAME" default:"storyweave"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBPassword    string        `ignored:"true"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `ignored:"true"`

	// DynamoDB
	AWSRegion           string `envconfig:"AWS_REGION" default:"us-west-2"`
	DynamoEndpoint      string `envconfig:"DYNAMODB_ENDPOINT"`
	DynamoProfilesTable string `envconfig:"DYNAMODB_PROFILES_TABLE" default:"StoryWeave-Profiles"`
	DynamoStoriesTable  string `envconfig:"DYNAMODB_STORIES_TABLE" default:"StoryWeave-Stories"`
	DynamoCacheTable    string `envconfig:"DYNAMODB_CACHE_TABLE" default:"StoryWeave-Cache"`
	DynamoUsersTable    string `envconfig:"DYNAMODB_USERS_TABLE" default:"StoryWeave-Users"`
	AWSAccessKeyID      string `ignored:"true"`
	AWSSecretAccessKey  string `ignored:"true"`

	// Messaging
	RabbitMQURL string `ignored:"true"`

	// Auth
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"24h"`
	AuthRateLimit  int           `envconfig:"AUTH_RATE_LIMIT_PER_MINUTE" default:"10"`
	JWTSecret      string        `ignored:"true"`
	PasswordPepper string        `ignored:"true"`
}

// GetAllowedOrigins splits CORSAllowedOrigins and appends FrontendURL when set.
func (c *Config) GetAllowedOrigins() []string {
	var origins []string
	seen := make(map[string]struct{})
	add := func(origin string) {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			return
		}
		if _, ok := seen[origin]; ok {
			return
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	add(c.FrontendURL)
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		add(origin)
	}
	return origins
}

// ModelForTier возвращает идентификатор модели для уровня cheap/medium/quality/expensive.
func (c *Config) ModelForTier(tier string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "cheap":
		return c.ModelCheap, nil
	case "medium":
		return c.ModelMedium, nil
	case "quality":
		return c.ModelQuality, nil
	case "expensive":
		return c.ModelExpensive, nil
	default:
		return "", fmt.Errorf("unknown model tier '%s'", tier)
	}
}

// StoryModel - модель для генерации историй по текущему MODEL_TIER.
func (c *Config) StoryModel() string {
	model, err := c.ModelForTier(c.ModelTier)
	if err != nil {
		return c.ModelCheap
	}
	return model
}

// TaggingModel - модель для расстановки эмоциональных тегов. По умолчанию дешевый уровень.
func (c *Config) TaggingModel() string {
	if c.EmotionModel != "" {
		return c.EmotionModel
	}
	return c.ModelCheap
}

// Validate проверяет перечислимые настройки и числовые границы.
func (c *Config) Validate() error {
	if _, err := c.ModelForTier(c.ModelTier); err != nil {
		return err
	}
	if !oneOf(c.AIClientType, AIClientOpenAI, AIClientOllama) {
		return fmt.Errorf("unknown AI_CLIENT_TYPE '%s'", c.AIClientType)
	}
	if !oneOf(c.ImageProvider, ImageProviderOpenAI, ImageProviderHTTP, ImageProviderDisabled) {
		return fmt.Errorf("unknown IMAGE_PROVIDER '%s'", c.ImageProvider)
	}
	if !oneOf(c.StoreBackend, BackendMemory, BackendPostgres, BackendDynamoDB) {
		return fmt.Errorf("unknown STORE_BACKEND '%s'", c.StoreBackend)
	}
	if !oneOf(c.CacheBackend, BackendMemory, BackendRedis, BackendDynamoDB) {
		return fmt.Errorf("unknown CACHE_BACKEND '%s'", c.CacheBackend)
	}
	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be >= 1, got %d", c.AIMaxAttempts)
	}
	if c.ImageConcurrency < 1 {
		return fmt.Errorf("IMAGE_CONCURRENCY must be >= 1, got %d", c.ImageConcurrency)
	}
	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from an optional .env file, environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Секреты: переменная окружения имеет приоритет, затем файл Docker secret.
	cfg.AIAPIKey = utils.SecretOrEnv(os.Getenv("AI_API_KEY"), "ai_api_key")
	cfg.ElevenLabsAPIKey = utils.SecretOrEnv(os.Getenv("ELEVENLABS_API_KEY"), "elevenlabs_api_key")
	cfg.DBPassword = utils.SecretOrEnv(os.Getenv("DB_PASSWORD"), "db_password")
	cfg.RedisPassword = utils.SecretOrEnv(os.Getenv("REDIS_PASSWORD"), "redis_password")
	cfg.RabbitMQURL = utils.SecretOrEnv(os.Getenv("RABBITMQ_URL"), "rabbitmq_url")
	cfg.AWSAccessKeyID = utils.SecretOrEnv(os.Getenv("AWS_ACCESS_KEY_ID"), "aws_access_key_id")
	cfg.AWSSecretAccessKey = utils.SecretOrEnv(os.Getenv("AWS_SECRET_ACCESS_KEY"), "aws_secret_access_key")
	cfg.JWTSecret = utils.SecretOrEnv(os.Getenv("JWT_SECRET"), "jwt_secret")
	cfg.PasswordPepper = utils.SecretOrEnv(os.Getenv("PASSWORD_PEPPER"), "password_pepper")

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required (env or jwt_secret secret file)")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("Configuration loaded successfully.")
	return &cfg, nil
}
