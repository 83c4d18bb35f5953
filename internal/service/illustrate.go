package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"storyweave/internal/imagegen"
	"storyweave/internal/models"
)

// SplitParagraphs делит текст по пустым строкам, обрезает пробелы и выбрасывает пустые абзацы.
func SplitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// SelectParagraphIndices равномерно выбирает numImages абзацев из total: floor(i*total/numImages).
// Если картинок не меньше, чем абзацев, выбираются все.
func SelectParagraphIndices(total, numImages int) []int {
	if total <= 0 || numImages <= 0 {
		return []int{}
	}
	if numImages >= total {
		numImages = total
	}
	indices := make([]int, numImages)
	for i := range indices {
		indices[i] = i * total / numImages
	}
	return indices
}

// NumImagesFor - одна картинка на pagesPerImage абзацев, минимум одна.
func NumImagesFor(storyText string, pagesPerImage int) int {
	if pagesPerImage <= 0 {
		pagesPerImage = models.DefaultPagesPerImage
	}
	return max(1, len(SplitParagraphs(storyText))/pagesPerImage)
}

// ImageOrchestrator иллюстрирует историю: выбирает абзацы, строит промпты и
// параллельно (с ограничением) запрашивает картинки у провайдера.
type ImageOrchestrator struct {
	generator   imagegen.Generator
	concurrency int
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewImageOrchestrator: interval - минимальная пауза между запросами к провайдеру, 0 - без ограничения.
func NewImageOrchestrator(generator imagegen.Generator, concurrency int, interval time.Duration, logger *zap.Logger) *ImageOrchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &ImageOrchestrator{
		generator:   generator,
		concurrency: concurrency,
		limiter:     limiter,
		logger:      logger.Named("ImageOrchestrator"),
	}
}

// Enabled сообщает, настроен ли провайдер картинок.
func (o *ImageOrchestrator) Enabled() bool {
	return o != nil && o.generator != nil
}

// Illustrate возвращает успешно сгенерированные картинки в порядке абзацев.
// Ошибка одной картинки логируется и не прерывает остальные.
func (o *ImageOrchestrator) Illustrate(ctx context.Context, storyText string, age int, theme string, numImages int) []models.ImageResult {
	if !o.Enabled() {
		return []models.ImageResult{}
	}

	paragraphs := SplitParagraphs(storyText)
	if len(paragraphs) == 0 {
		o.logger.Warn("No paragraphs found in story")
		return []models.ImageResult{}
	}

	indices := SelectParagraphIndices(len(paragraphs), numImages)
	character := ExtractCharacterDescription(storyText)
	o.logger.Info("Generating story images",
		zap.Int("paragraphs", len(paragraphs)),
		zap.Int("images", len(indices)),
		zap.String("character", character),
	)

	results := make([]*models.ImageResult, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, paragraphIndex := range indices {
		g.Go(func() error {
			scene := ExtractSceneDescription(paragraphs[paragraphIndex], sceneMaxLength)
			imagePrompt := ChildFriendlyPrompt(scene, age, theme, character)
			log := o.logger.With(zap.Int("image_index", i), zap.Int("paragraph_index", paragraphIndex))

			if err := o.limiter.Wait(gctx); err != nil {
				log.Warn("Image request cancelled", zap.Error(err))
				imagesGenerated.WithLabelValues("cancelled").Inc()
				return nil
			}

			img, err := o.generator.Generate(gctx, imagePrompt)
			if err != nil {
				log.Error("Failed to generate image", zap.Error(err))
				imagesGenerated.WithLabelValues("error").Inc()
				return nil
			}
			imagesGenerated.WithLabelValues("success").Inc()

			results[i] = &models.ImageResult{
				ImageIndex:           i,
				ParagraphIndex:       paragraphIndex,
				ImageData:            img.Data,
				MimeType:             img.MimeType,
				Prompt:               imagePrompt,
				CharacterDescription: character,
			}
			return nil
		})
	}
	_ = g.Wait()

	images := make([]models.ImageResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			images = append(images, *r)
		}
	}
	o.logger.Info("Story images generated", zap.Int("succeeded", len(images)), zap.Int("requested", len(indices)))
	return images
}
