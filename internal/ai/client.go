package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storyweave/internal/config"
)

// ErrEmptyCompletion возвращается, когда модель ответила пустым текстом.
var ErrEmptyCompletion = errors.New("empty completion from model")

// GenerationParams - параметры одного вызова модели.
// Пустой Model означает модель клиента по умолчанию.
type GenerationParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Usage содержит расход токенов на запрос.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion - результат генерации.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// TextGenerator - клиент текстовой модели. Один вызов Generate = одна попытка, без повторов.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (Completion, error)
}

// NewTextGenerator создает клиента в зависимости от AI_CLIENT_TYPE.
func NewTextGenerator(cfg *config.Config, logger *zap.Logger) (TextGenerator, error) {
	httpClient := &http.Client{Timeout: cfg.AITimeout}
	log := logger.Named("AIClient")

	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientOpenAI:
		log.Info("Using OpenAI-compatible AI client",
			zap.String("base_url", cfg.AIBaseURL),
			zap.String("model", cfg.StoryModel()),
			zap.Duration("timeout", cfg.AITimeout),
		)
		return NewOpenAIClient(cfg.AIAPIKey, cfg.AIBaseURL, cfg.StoryModel(), httpClient, log), nil
	case config.AIClientOllama:
		log.Info("Using Ollama AI client",
			zap.String("base_url", cfg.AIBaseURL),
			zap.String("model", cfg.StoryModel()),
			zap.Duration("timeout", cfg.AITimeout),
		)
		return NewOllamaClient(cfg.AIBaseURL, cfg.StoryModel(), httpClient, log)
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.AIClientType)
	}
}

func modelOrDefault(model, fallback string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return fallback
}
