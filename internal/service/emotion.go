package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"storyweave/internal/ai"
	"storyweave/internal/prompt"
)

const (
	emotionTemperature = 0.3
	emotionMaxTokens   = 4000
	pageSeparator      = "\n\n"
)

var emotionTagPattern = regexp.MustCompile(`\[[^\]]*\]`)

// TagResult - текст после тегирования. При любой ошибке Text равен исходному, Tagged=false.
type TagResult struct {
	Text   string
	Tagged bool
}

// EmotionTagger добавляет в историю голосовые подсказки вида [whisper] для озвучки.
type EmotionTagger struct {
	generator ai.TextGenerator
	builder   *prompt.Builder
	model     string
	verify    bool
	logger    *zap.Logger
}

func NewEmotionTagger(generator ai.TextGenerator, builder *prompt.Builder, model string, verify bool, logger *zap.Logger) *EmotionTagger {
	return &EmotionTagger{
		generator: generator,
		builder:   builder,
		model:     model,
		verify:    verify,
		logger:    logger.Named("EmotionTagger"),
	}
}

// Tag выполняет один вызов модели. Ошибки не возвращаются.
func (t *EmotionTagger) Tag(ctx context.Context, text, mood, theme string) TagResult {
	original := TagResult{Text: text}
	if strings.TrimSpace(text) == "" {
		return original
	}

	instructions, err := t.builder.BuildEmotionTagging(text, mood, theme)
	if err != nil {
		t.logger.Error("Failed to build emotion tagging prompt", zap.Error(err))
		return original
	}

	completion, err := t.generator.Generate(ctx, instructions, ai.GenerationParams{
		Model:       t.model,
		MaxTokens:   emotionMaxTokens,
		Temperature: emotionTemperature,
	})
	if err != nil {
		t.logger.Warn("Emotion tagging failed, using original text",
			zap.String("code", string(ai.CodeOf(err))),
			zap.Error(err),
		)
		return original
	}

	tagged := strings.TrimSpace(completion.Text)
	if tagged == "" {
		t.logger.Warn("Emotion tagging returned empty text, using original text")
		return original
	}
	if t.verify && !SameTextIgnoringTags(text, tagged) {
		t.logger.Warn("Emotion tagging changed story text, using original text",
			zap.Int("original_length", len(text)),
			zap.Int("tagged_length", len(tagged)),
		)
		return original
	}

	return TagResult{Text: tagged, Tagged: true}
}

// TagPages тегирует страницы одним вызовом. Если число страниц после разбиения
// не совпало, возвращаются исходные страницы.
func (t *EmotionTagger) TagPages(ctx context.Context, pages []string, mood, theme string) ([]string, bool) {
	if len(pages) == 0 {
		return []string{}, false
	}

	result := t.Tag(ctx, strings.Join(pages, pageSeparator), mood, theme)
	if !result.Tagged {
		return pages, false
	}

	tagged := strings.Split(result.Text, pageSeparator)
	if len(tagged) != len(pages) {
		t.logger.Warn("Page count mismatch after emotion tagging",
			zap.Int("expected", len(pages)),
			zap.Int("got", len(tagged)),
		)
		return pages, false
	}
	return tagged, true
}

// StripEmotionTags удаляет все [теги].
func StripEmotionTags(text string) string {
	return emotionTagPattern.ReplaceAllString(text, "")
}

// SameTextIgnoringTags сравнивает тексты без тегов, с нормализованными пробелами.
func SameTextIgnoringTags(original, tagged string) bool {
	return normalizeSpace(original) == normalizeSpace(StripEmotionTags(tagged))
}

func normalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
