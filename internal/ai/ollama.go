package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaClient работает с нативным API Ollama (/api/chat).
type OllamaClient struct {
	client *api.Client
	model  string
	logger *zap.Logger
}

// NewOllamaClient создает клиента. Суффикс /v1 в baseURL отбрасывается.
func NewOllamaClient(baseURL, model string, httpClient *http.Client, logger *zap.Logger) (*OllamaClient, error) {
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL '%s': %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaClient{
		client: api.NewClient(parsed, httpClient),
		model:  model,
		logger: logger,
	}, nil
}

// Generate выполняет не-потоковый chat-запрос.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, params GenerationParams) (Completion, error) {
	model := modelOrDefault(params.Model, c.model)
	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options: map[string]any{
			"temperature": params.Temperature,
			"num_predict": params.MaxTokens,
		},
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		genErr := Classify(err)
		observeRequest(model, "error", duration)
		c.logger.Warn("Ollama request failed",
			zap.String("model", model),
			zap.String("code", string(genErr.Code)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return Completion{}, genErr
	}

	if resp.Message.Content == "" {
		observeRequest(model, "error_empty_response", duration)
		c.logger.Warn("Ollama returned empty response", zap.String("model", model), zap.Duration("duration", duration))
		return Completion{}, &GenerationError{Code: CodeUnknown, Err: ErrEmptyCompletion}
	}

	text := resp.Message.Content
	usage := Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(model, prompt, text)
	}

	observeRequest(model, "success", duration)
	observeTokens(model, usage)
	c.logger.Debug("Ollama response received",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
		zap.Int("total_tokens", usage.TotalTokens),
	)

	return Completion{Text: text, Model: model, Usage: usage}, nil
}
