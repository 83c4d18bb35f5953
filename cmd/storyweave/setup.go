package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storyweave/internal/config"
	"storyweave/internal/messaging"
	"storyweave/internal/repository"
	"storyweave/pkg/database"
	"storyweave/pkg/migration"
	"storyweave/pkg/utils"
)

// Backends - выбранные хранилища и открытые соединения.
type Backends struct {
	Store repository.Store
	Redis *redis.Client

	pool   *pgxpool.Pool
	dynamo *repository.DynamoStore
}

// Close закрывает соединения, открытые при старте.
func (b *Backends) Close() {
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

// setupBackends собирает Store по STORE_BACKEND и CACHE_BACKEND.
// Недоступный бэкенд заменяется памятью, если включен STORE_FALLBACK_TO_MEMORY.
func setupBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backends, error) {
	memory := repository.NewMemoryStore(log)
	b := &Backends{Store: memory.Store()}

	fallback := func(backend string, err error) error {
		if !cfg.StoreFallbackToMemory {
			return fmt.Errorf("%s backend unavailable: %w", backend, err)
		}
		log.Warn("Backend unavailable, falling back to in-memory store",
			zap.String("backend", backend),
			zap.Error(err),
		)
		return nil
	}

	switch strings.ToLower(cfg.StoreBackend) {
	case config.BackendPostgres:
		pg, err := setupPostgres(ctx, cfg, log)
		if err != nil {
			if err := fallback(config.BackendPostgres, err); err != nil {
				return nil, err
			}
			break
		}
		b.pool = pg
		store := repository.NewPgStore(pg, log)
		b.Store.Stories, b.Store.Profiles, b.Store.Users = store, store, store
	case config.BackendDynamoDB:
		store, err := b.dynamoStore(ctx, cfg, log)
		if err != nil {
			if err := fallback(config.BackendDynamoDB, err); err != nil {
				return nil, err
			}
			break
		}
		b.Store.Stories, b.Store.Profiles, b.Store.Users = store, store, store
	}

	switch strings.ToLower(cfg.CacheBackend) {
	case config.BackendRedis:
		client, err := setupRedis(ctx, cfg, log)
		if err != nil {
			if err := fallback(config.BackendRedis, err); err != nil {
				return nil, err
			}
			break
		}
		b.Redis = client
		b.Store.Cache = repository.NewRedisCache(client, log)
	case config.BackendDynamoDB:
		store, err := b.dynamoStore(ctx, cfg, log)
		if err != nil {
			if err := fallback(config.BackendDynamoDB, err); err != nil {
				return nil, err
			}
			break
		}
		b.Store.Cache = store
	}

	log.Info("Storage backends ready",
		zap.String("stories", fmt.Sprintf("%T", b.Store.Stories)),
		zap.String("cache", fmt.Sprintf("%T", b.Store.Cache)),
	)
	return b, nil
}

// dynamoStore создает DynamoStore один раз и проверяет наличие таблиц.
func (b *Backends) dynamoStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repository.DynamoStore, error) {
	if b.dynamo != nil {
		return b.dynamo, nil
	}

	tables := repository.DynamoConfig{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.DynamoEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		ProfilesTable:   cfg.DynamoProfilesTable,
		StoriesTable:    cfg.DynamoStoriesTable,
		CacheTable:      cfg.DynamoCacheTable,
		UsersTable:      cfg.DynamoUsersTable,
	}
	client, err := repository.NewDynamoClient(ctx, tables)
	if err != nil {
		return nil, err
	}
	store := repository.NewDynamoStore(client, tables, log)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, err
	}
	log.Info("Connected to DynamoDB", zap.String("region", cfg.AWSRegion), zap.String("endpoint", cfg.DynamoEndpoint))
	b.dynamo = store
	return store, nil
}

func setupPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, database.Config{
		Host:        cfg.DBHost,
		Port:        cfg.DBPort,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		DBName:      cfg.DBName,
		SSLMode:     cfg.DBSSLMode,
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	}, database.RetryPolicy{
		MaxRetries: cfg.ConnectMaxRetries,
		Delay:      cfg.ConnectRetryDelay,
	}, log)
	if err != nil {
		return nil, err
	}

	migrator := migration.NewMigrator(migration.Config{
		MigrationsFS:   repository.MigrationsFS,
		MigrationsPath: repository.MigrationsPath,
	}, pool, log)
	if err := migrator.Up(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return pool, nil
}

// setupRedis подключается к Redis с повторами.
func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	maxRetries := max(cfg.ConnectMaxRetries, 1)
	log.Info("Attempting to connect to Redis",
		zap.String("address", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("max_retries", maxRetries),
	)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("Connected to Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		_ = client.Close()
		lastErr = err
		log.Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis connect cancelled: %w", ctx.Err())
		case <-time.After(cfg.ConnectRetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ подключается к RabbitMQ с повторами.
func connectRabbitMQ(url string, maxRetries int, retryDelay time.Duration, log *zap.Logger) (*amqp091.Connection, error) {
	maxRetries = max(maxRetries, 1)
	log.Info("Attempting to connect to RabbitMQ",
		zap.String("url", utils.MaskURL(url)),
		zap.Int("max_retries", maxRetries),
		zap.Duration("retry_delay", retryDelay),
	)

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var conn *amqp091.Connection
		conn, err = amqp091.Dial(url)
		if err == nil {
			log.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp091.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					log.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		log.Warn("RabbitMQ connection failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// connPublisher закрывает соединение вместе с каналом издателя.
type connPublisher struct {
	*messaging.RabbitMQStoryPublisher
	conn *amqp091.Connection
}

func (p *connPublisher) Close() error {
	err := p.RabbitMQStoryPublisher.Close()
	if closeErr := p.conn.Close(); err == nil {
		err = closeErr
	}
	return err
}
