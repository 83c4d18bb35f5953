package imagegen

import (
	"context"
	"fmt"
	"net/http"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIGenerator рисует через Images API и получает ответ сразу в base64.
type OpenAIGenerator struct {
	client *openaigo.Client
	model  string
	size   string
	logger *zap.Logger
}

func NewOpenAIGenerator(apiKey, baseURL, model, size string, httpClient *http.Client, logger *zap.Logger) *OpenAIGenerator {
	cfg := openaigo.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIGenerator{
		client: openaigo.NewClientWithConfig(cfg),
		model:  model,
		size:   size,
		logger: logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (Image, error) {
	resp, err := g.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		Size:           g.size,
		N:              1,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		g.logger.Warn("Image request failed", zap.String("model", g.model), zap.Error(err))
		return Image{}, fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		g.logger.Warn("Image API returned no data", zap.String("model", g.model))
		return Image{}, fmt.Errorf("%w: API returned empty data", ErrImageGenerationFailed)
	}
	return Image{Data: resp.Data[0].B64JSON, MimeType: defaultMimeType}, nil
}
