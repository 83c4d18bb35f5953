package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotConfigured - ключ ElevenLabs не задан.
	ErrNotConfigured = errors.New("text-to-speech API key not configured")
	// ErrSynthesisFailed - сервис вернул ошибку или пустое аудио.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// AudioContentType - формат, который отдает ElevenLabs по умолчанию.
const AudioContentType = "audio/mpeg"

// NarratorVoices - пул голосов рассказчика.
var NarratorVoices = []string{
	"dAcds2QMcvmv86jQMC3Y", // Jayce
	"RKCbSROXui75bk1SVpy8", // Shaun
	"7p1Ofvcwsv7UBPoFNcpI", // Julian
	"L1aJrPa7pLJEyYlh3Ilq", // Oliver
}

// SelectVoice выбирает случайный голос из пула.
func SelectVoice() string {
	return NarratorVoices[rand.IntN(len(NarratorVoices))]
}

// Synthesizer озвучивает текст и возвращает MP3.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// VoiceSettings - параметры голоса, подобранные для детского чтения.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings - спокойный и четкий голос.
var DefaultVoiceSettings = VoiceSettings{
	Stability:       0.6,
	SimilarityBoost: 0.8,
	Style:           0.3,
	UseSpeakerBoost: true,
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

var _ Synthesizer = (*ElevenLabsClient)(nil)

// ElevenLabsClient - клиент REST API ElevenLabs.
type ElevenLabsClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewElevenLabsClient(baseURL, apiKey, model string, httpClient *http.Client, logger *zap.Logger) *ElevenLabsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ElevenLabsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  httpClient,
		logger:  logger.Named("ElevenLabs"),
	}
}

func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	log := c.logger.With(zap.String("voice_id", voiceID), zap.Int("text_length", len(text)))

	body, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       c.model,
		VoiceSettings: DefaultVoiceSettings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", AudioContentType)
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error("Text-to-speech request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	audio, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Text-to-speech API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", audio),
		)
		return nil, fmt.Errorf("%w: status %d", ErrSynthesisFailed, resp.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrSynthesisFailed)
	}

	log.Info("Audio generated", zap.Int("size_bytes", len(audio)))
	return audio, nil
}
