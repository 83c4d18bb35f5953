package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, "cheap", cfg.ModelTier)
	assert.Equal(t, cfg.ModelCheap, cfg.StoryModel())
	assert.Equal(t, cfg.ModelCheap, cfg.TaggingModel())
	assert.Equal(t, 1500, cfg.StoryMaxTokens)
	assert.InDelta(t, 0.7, cfg.StoryTemperature, 1e-9)
	assert.Equal(t, 3, cfg.AIMaxAttempts)
	assert.Equal(t, time.Second, cfg.AIBaseRetryDelay)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "MODEL_TIER=quality\nMODEL_QUALITY=gpt-test-quality\nJWT_SECRET=file-secret\nEMOTION_MODEL=tagger\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv не перезаписывает уже выставленные переменные, поэтому чистим их на время теста.
	for _, key := range []string{"MODEL_TIER", "MODEL_QUALITY", "JWT_SECRET", "EMOTION_MODEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "gpt-test-quality", cfg.StoryModel())
	assert.Equal(t, "tagger", cfg.TaggingModel())
	assert.Equal(t, "file-secret", cfg.JWTSecret)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("ENV", "development")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestLoadConfigRejectsUnknownTier(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("MODEL_TIER", "premium")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "premium")
}

func TestModelForTier(t *testing.T) {
	cfg := &Config{ModelCheap: "a", ModelMedium: "b", ModelQuality: "c", ModelExpensive: "d"}

	for tier, want := range map[string]string{"cheap": "a", "MEDIUM": "b", " quality ": "c", "expensive": "d"} {
		got, err := cfg.ModelForTier(tier)
		require.NoError(t, err, tier)
		assert.Equal(t, want, got, tier)
	}

	_, err := cfg.ModelForTier("unknown")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ModelTier:        "cheap",
			AIClientType:     AIClientOllama,
			ImageProvider:    ImageProviderDisabled,
			StoreBackend:     BackendPostgres,
			CacheBackend:     BackendRedis,
			AIMaxAttempts:    1,
			ImageConcurrency: 1,
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.StoreBackend = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.CacheBackend = "memcached"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.AIMaxAttempts = 0
	assert.Error(t, cfg.Validate())
}

func TestGetAllowedOrigins(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: "http://localhost:3000, http://localhost:5173,,http://localhost:3000",
		FrontendURL:        "https://storyweave.app",
	}
	assert.Equal(t, []string{
		"https://storyweave.app",
		"http://localhost:3000",
		"http://localhost:5173",
	}, cfg.GetAllowedOrigins())
}
