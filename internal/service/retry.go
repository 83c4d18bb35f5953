package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storyweave/internal/ai"
	"storyweave/internal/models"
	"storyweave/internal/prompt"
)

// GenerationResult - итог генерации с повторами.
// Success=false и Fallback=false означает чистый отказ: Story пустая.
// При Fallback=true Story взята из таблицы запасных историй.
type GenerationResult struct {
	Success    bool
	Story      string
	Fallback   bool
	ErrorCode  ai.ErrorCode
	LastError  ai.ErrorCode
	TokensUsed int
	Model      string
	Attempts   int
}

// WaitFunc ждет d или отмены ctx.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryController вызывает модель до maxAttempts раз с паузами base*2^(n-1)
// и подставляет запасную историю, когда попытки исчерпаны.
type RetryController struct {
	generator   ai.TextGenerator
	params      ai.GenerationParams
	maxAttempts int
	baseDelay   time.Duration
	wait        WaitFunc
	logger      *zap.Logger
}

// RetryOption настраивает RetryController.
type RetryOption func(*RetryController)

// WithWaitFunc подменяет ожидание между попытками. Используется в тестах.
func WithWaitFunc(wait WaitFunc) RetryOption {
	return func(r *RetryController) {
		r.wait = wait
	}
}

func NewRetryController(
	generator ai.TextGenerator,
	params ai.GenerationParams,
	maxAttempts int,
	baseDelay time.Duration,
	logger *zap.Logger,
	opts ...RetryOption,
) *RetryController {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	r := &RetryController{
		generator:   generator,
		params:      params,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		wait:        sleepContext,
		logger:      logger.Named("RetryController"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backoff - пауза перед попыткой attempt+1.
func (r *RetryController) Backoff(attempt int) time.Duration {
	return r.baseDelay * time.Duration(1<<(attempt-1))
}

// GenerateWithFallback никогда не возвращает ошибку: отказ превращается в запасную историю.
func (r *RetryController) GenerateWithFallback(ctx context.Context, promptText string, profile models.ProfileType) GenerationResult {
	var lastCode ai.ErrorCode
	attempt := 1
	for ; attempt <= r.maxAttempts; attempt++ {
		completion, err := r.generator.Generate(ctx, promptText, r.params)
		if err == nil {
			generationAttempts.Observe(float64(attempt))
			r.logger.Info("Story generated",
				zap.String("profile", string(profile)),
				zap.Int("attempt", attempt),
				zap.Int("tokens", completion.Usage.TotalTokens),
			)
			return GenerationResult{
				Success:    true,
				Story:      completion.Text,
				TokensUsed: completion.Usage.TotalTokens,
				Model:      completion.Model,
				Attempts:   attempt,
			}
		}

		lastCode = ai.CodeOf(err)
		r.logger.Warn("Story generation attempt failed",
			zap.String("profile", string(profile)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.String("code", string(lastCode)),
			zap.Error(err),
		)

		if attempt == r.maxAttempts {
			break
		}

		delay := r.Backoff(attempt)
		r.logger.Debug("Waiting before next attempt", zap.Duration("delay", delay))
		if err := r.wait(ctx, delay); err != nil {
			r.logger.Warn("Retry wait interrupted, using fallback story", zap.Error(err))
			break
		}
	}

	generationAttempts.Observe(float64(attempt))
	r.logger.Error("All generation attempts failed, using fallback story",
		zap.String("profile", string(profile)),
		zap.Int("attempts", attempt),
		zap.String("last_code", string(lastCode)),
	)
	return GenerationResult{
		Success:   false,
		Fallback:  true,
		Story:     prompt.FallbackStory(profile),
		ErrorCode: ai.CodeMaxRetries,
		LastError: lastCode,
		Attempts:  attempt,
	}
}
