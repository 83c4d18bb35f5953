package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storyweave/internal/config"
)

// ErrImageGenerationFailed - провайдер не вернул изображение.
var ErrImageGenerationFailed = errors.New("image generation failed")

const defaultMimeType = "image/png"

// Image - сгенерированная картинка в base64.
type Image struct {
	Data     string
	MimeType string
}

// Generator - провайдер иллюстраций. Один вызов = одно изображение.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Image, error)
}

// NewGenerator выбирает провайдера по IMAGE_PROVIDER.
// Для disabled возвращает nil без ошибки: иллюстрации выключены.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (Generator, error) {
	httpClient := &http.Client{Timeout: cfg.ImageTimeout}
	log := logger.Named("ImageGenerator")

	switch strings.ToLower(cfg.ImageProvider) {
	case config.ImageProviderOpenAI:
		log.Info("Using OpenAI image provider", zap.String("model", cfg.ImageModel), zap.String("size", cfg.ImageSize))
		return NewOpenAIGenerator(cfg.AIAPIKey, cfg.AIBaseURL, cfg.ImageModel, cfg.ImageSize, httpClient, log), nil
	case config.ImageProviderHTTP:
		log.Info("Using HTTP image server", zap.String("url", cfg.ImageServerURL))
		return NewHTTPGenerator(cfg.ImageServerURL, httpClient, log), nil
	case config.ImageProviderDisabled:
		log.Info("Image generation disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown image provider: %s", cfg.ImageProvider)
	}
}
