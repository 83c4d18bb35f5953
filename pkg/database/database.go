package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config содержит настройки подключения к PostgreSQL.
type Config struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	IdleTimeout time.Duration
}

// DSN собирает строку подключения postgres://.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RetryPolicy задает, сколько раз и с какой паузой пытаться подключиться.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// Connect создает пул pgx и проверяет его пингом, повторяя попытки по RetryPolicy.
func Connect(ctx context.Context, cfg Config, policy RetryPolicy, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 1
	}

	logger.Info("Attempting to connect to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.String("db", cfg.DBName),
		zap.Int("max_retries", policy.MaxRetries),
		zap.Duration("retry_delay", policy.Delay),
	)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		pool, err := tryConnect(ctx, poolConfig)
		if err == nil {
			logger.Info("Connected to PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}
		lastErr = err
		logger.Warn("PostgreSQL connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", policy.MaxRetries),
			zap.Error(err),
		)
		if attempt == policy.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("postgres connect cancelled: %w", ctx.Err())
		case <-time.After(policy.Delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", policy.MaxRetries, lastErr)
}

func tryConnect(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}
