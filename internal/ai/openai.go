package ai

import (
	"context"
	"net/http"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient работает с OpenAI-совместимым Chat Completions API.
type OpenAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient создает клиента. baseURL может указывать на любой совместимый шлюз.
func NewOpenAIClient(apiKey, baseURL, model string, httpClient *http.Client, logger *zap.Logger) *OpenAIClient {
	cfg := openaigo.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIClient{
		client: openaigo.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Generate отправляет промпт одним пользовательским сообщением.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (Completion, error) {
	model := modelOrDefault(params.Model, c.model)
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   params.MaxTokens,
		Temperature: float32(params.Temperature),
	})
	duration := time.Since(start)

	if err != nil {
		genErr := Classify(err)
		observeRequest(model, "error", duration)
		c.logger.Warn("AI request failed",
			zap.String("model", model),
			zap.String("code", string(genErr.Code)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return Completion{}, genErr
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		observeRequest(model, "error_empty_response", duration)
		c.logger.Warn("AI returned empty response", zap.String("model", model), zap.Duration("duration", duration))
		return Completion{}, &GenerationError{Code: CodeUnknown, Err: ErrEmptyCompletion}
	}

	text := resp.Choices[0].Message.Content
	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(model, prompt, text)
	}

	observeRequest(model, "success", duration)
	observeTokens(model, usage)
	c.logger.Debug("AI response received",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
		zap.Int("total_tokens", usage.TotalTokens),
	)

	return Completion{Text: text, Model: model, Usage: usage}, nil
}
