package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"storyweave/internal/models"
	"storyweave/internal/tts"
)

// AudioRequest - страница текста для озвучки.
type AudioRequest struct {
	Text    string
	VoiceID string
	Mood    string
	Theme   string
}

// AudioResult - MP3 в base64 и параметры озвучки.
type AudioResult struct {
	AudioData   string `json:"audio_data"`
	ContentType string `json:"content_type"`
	TextLength  int    `json:"text_length"`
	Mood        string `json:"mood"`
	Theme       string `json:"theme"`
	VoiceID     string `json:"voice_id"`
	Success     bool   `json:"success"`
}

type AudioService struct {
	synthesizer tts.Synthesizer
	selectVoice func() string
	logger      *zap.Logger
}

func NewAudioService(synthesizer tts.Synthesizer, logger *zap.Logger) *AudioService {
	return &AudioService{
		synthesizer: synthesizer,
		selectVoice: tts.SelectVoice,
		logger:      logger.Named("AudioService"),
	}
}

// Narrate озвучивает текст. Без voice_id голос выбирается случайно из пула рассказчиков.
func (s *AudioService) Narrate(ctx context.Context, req AudioRequest) (*AudioResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, models.NewValidationError("Text cannot be empty")
	}
	if req.Mood == "" {
		req.Mood = models.DefaultMood
	}
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = s.selectVoice()
	}

	textLength := utf8.RuneCountInString(req.Text)
	log := s.logger.With(
		zap.Int("text_length", textLength),
		zap.String("mood", req.Mood),
		zap.String("voice_id", voiceID),
	)
	log.Info("Generating audio")

	audio, err := s.synthesizer.Synthesize(ctx, req.Text, voiceID)
	if err != nil {
		log.Error("Failed to generate audio", zap.Error(err))
		return nil, fmt.Errorf("failed to generate audio: %w", err)
	}

	return &AudioResult{
		AudioData:   base64.StdEncoding.EncodeToString(audio),
		ContentType: tts.AudioContentType,
		TextLength:  textLength,
		Mood:        req.Mood,
		Theme:       req.Theme,
		VoiceID:     voiceID,
		Success:     true,
	}, nil
}
