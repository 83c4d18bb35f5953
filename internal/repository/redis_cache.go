package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storyweave/internal/models"
)

const (
	cacheKeyPrefix       = "story_cache:"
	cacheAccessKeyPrefix = "story_cache_hits:"
)

var _ CacheRepository = (*RedisCache)(nil)

// RedisCache хранит истории в Redis с TTL. Счетчик обращений лежит в отдельном ключе
// с тем же сроком жизни, чтобы INCR не перезаписывал тело записи.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache создает кэш поверх готового клиента.
func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger.Named("RedisCache"),
	}
}

type redisCacheValue struct {
	Story     string `json:"story"`
	ExpiresAt int64  `json:"expires_at"`
}

func (c *RedisCache) GetCachedStory(ctx context.Context, key string) (*models.CacheEntry, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		c.logger.Error("Failed to read cached story", zap.String("cache_key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to read cached story from redis: %w", err)
	}

	var value redisCacheValue
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("Corrupted cache entry, ignoring", zap.String("cache_key", key), zap.Error(err))
		return nil, models.ErrNotFound
	}

	hits, err := c.client.Incr(ctx, cacheAccessKeyPrefix+key).Result()
	if err != nil {
		// Счетчик не критичен для ответа.
		c.logger.Warn("Failed to increment cache access count", zap.String("cache_key", key), zap.Error(err))
	}

	return &models.CacheEntry{
		CacheKey:    key,
		Story:       value.Story,
		ExpiresAt:   value.ExpiresAt,
		AccessCount: int(hits),
	}, nil
}

func (c *RedisCache) SaveCachedStory(ctx context.Context, key, story string, ttl time.Duration) error {
	payload, err := json.Marshal(redisCacheValue{
		Story:     story,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, cacheKeyPrefix+key, payload, ttl)
	pipe.Set(ctx, cacheAccessKeyPrefix+key, 0, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Failed to save cached story", zap.String("cache_key", key), zap.Error(err))
		return fmt.Errorf("failed to save cached story to redis: %w", err)
	}
	c.logger.Debug("Story cached", zap.String("cache_key", key), zap.Duration("ttl", ttl))
	return nil
}
