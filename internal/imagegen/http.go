package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"
)

// HTTPGenerator обращается к собственному серверу генерации:
// POST JSON {"prompt": ...}, в ответ - байты картинки.
type HTTPGenerator struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewHTTPGenerator(url string, httpClient *http.Client, logger *zap.Logger) *HTTPGenerator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPGenerator{url: url, client: httpClient, logger: logger}
}

type imageServerRequest struct {
	Prompt string `json:"prompt"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (Image, error) {
	body, err := json.Marshal(imageServerRequest{Prompt: prompt})
	if err != nil {
		return Image{}, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Image{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("Image server request failed", zap.String("url", g.url), zap.Error(err))
		return Image{}, fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("Image server returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", data),
		)
		return Image{}, fmt.Errorf("%w: status %d", ErrImageGenerationFailed, resp.StatusCode)
	}
	if readErr != nil {
		return Image{}, fmt.Errorf("failed to read response body: %w", readErr)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: API returned empty data", ErrImageGenerationFailed)
	}

	mimeType := defaultMimeType
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mediaType != "" {
		mimeType = mediaType
	}
	return Image{Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}, nil
}
