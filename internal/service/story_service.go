package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyweave/internal/ai"
	"storyweave/internal/messaging"
	"storyweave/internal/models"
	"storyweave/internal/prompt"
	"storyweave/internal/repository"
)

const (
	maxThemeLength    = 100
	synopsisMaxLength = 400
)

// StoryServiceConfig - переключатели best-effort шагов.
type StoryServiceConfig struct {
	CacheEnabled          bool
	CacheTTL              time.Duration
	EmotionTaggingEnabled bool
	DemoMode              bool
}

// StoryService собирает цепочку: проверка, кэш, промпт, генерация с повторами,
// сохранение, теги эмоций, иллюстрации.
type StoryService struct {
	builder   *prompt.Builder
	retry     *RetryController
	tagger    *EmotionTagger
	images    *ImageOrchestrator
	stories   repository.StoryRepository
	cache     repository.CacheRepository
	publisher messaging.StoryPublisher
	cfg       StoryServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewStoryService(
	builder *prompt.Builder,
	retry *RetryController,
	tagger *EmotionTagger,
	images *ImageOrchestrator,
	stories repository.StoryRepository,
	cache repository.CacheRepository,
	publisher messaging.StoryPublisher,
	cfg StoryServiceConfig,
	logger *zap.Logger,
) *StoryService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &StoryService{
		builder:   builder,
		retry:     retry,
		tagger:    tagger,
		images:    images,
		stories:   stories,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.Named("StoryService"),
		now:       time.Now,
	}
}

func (s *StoryService) normalize(req *models.StoryRequest) {
	req.Theme = SanitizeInput(req.Theme, maxThemeLength)
	req.Interests = sanitizeInterests(req.Interests)
	req.ChildID = strings.TrimSpace(req.ChildID)
	if req.ChildID == "" {
		req.ChildID = models.DefaultChildID
	}
	if req.Mood = strings.TrimSpace(req.Mood); req.Mood == "" {
		req.Mood = models.DefaultMood
	}
	if req.PagesPerImage == 0 {
		req.PagesPerImage = models.DefaultPagesPerImage
	}
	req.DemoMode = req.DemoMode || s.cfg.DemoMode
}

// Generate возвращает историю. Отказ модели дает запасную историю, а не ошибку.
// Ошибка возвращается только при неверном запросе или неизвестной главе-родителе.
func (s *StoryService) Generate(ctx context.Context, req models.StoryRequest) (*models.StoryResponse, error) {
	if err := ValidateStoryRequest(&req); err != nil {
		return nil, err
	}
	s.normalize(&req)

	log := s.logger.With(
		zap.String("profile", string(req.ProfileType)),
		zap.String("child_id", req.ChildID),
		zap.Int("age", req.Age),
		zap.Int("story_length", req.StoryLength),
	)

	continuation, parentID, err := s.loadContinuation(ctx, req.ParentStoryID)
	if err != nil {
		return nil, err
	}

	useCache := s.cfg.CacheEnabled && s.cache != nil && !req.DemoMode && continuation == nil && cacheable(req)
	cacheKey := CacheKey(req.ProfileType, req.Theme, req.Age, req.StoryLength)
	if useCache {
		if resp, ok := s.fromCache(ctx, cacheKey, req, log); ok {
			return resp, nil
		}
	}

	promptText, err := s.builder.Build(prompt.Request{
		Profile:       req.ProfileType,
		Age:           req.Age,
		Theme:         req.Theme,
		Interests:     req.Interests,
		LengthMinutes: req.StoryLength,
		DemoMode:      req.DemoMode,
		Continuation:  continuation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	start := s.now()
	result := s.retry.GenerateWithFallback(ctx, promptText, req.ProfileType)
	generationTime := s.now().Sub(start)
	storyGenerationDuration.WithLabelValues(string(req.ProfileType)).Observe(generationTime.Seconds())

	chapter := 1
	if continuation != nil {
		chapter = continuation.Chapter
	}
	resp := &models.StoryResponse{
		StoryID:           uuid.NewString(),
		StoryText:         result.Story,
		EmotionTaggedText: result.Story,
		Images:            []models.ImageResult{},
		ProfileUsed:       req.ProfileType,
		ChapterNumber:     chapter,
		GenerationTime:    generationTime.Seconds(),
	}

	if result.Fallback {
		storiesTotal.WithLabelValues(string(req.ProfileType), sourceFallback).Inc()
		log.Warn("Using fallback story due to generation failure",
			zap.Int("attempts", result.Attempts),
			zap.String("last_code", string(result.LastError)),
		)
		resp.Fallback = true
		resp.Warning = ai.UserMessage(result.ErrorCode)
		return resp, nil
	}
	storiesTotal.WithLabelValues(string(req.ProfileType), sourceGenerated).Inc()

	numImages := 0
	if req.GenerateImages && s.images.Enabled() {
		numImages = NumImagesFor(result.Story, req.PagesPerImage)
	}

	record := s.newRecord(resp.StoryID, req, result.Story, numImages)
	record.ParentStoryID = parentID
	record.ChapterNumber = chapter
	resp.StorySaved = s.persist(ctx, record, log)
	if useCache {
		s.saveToCache(ctx, cacheKey, result.Story, log)
	}

	s.decorate(ctx, resp, req, numImages)
	log.Info("Story generated",
		zap.String("story_id", resp.StoryID),
		zap.Int("chapter", chapter),
		zap.Float64("generation_time", resp.GenerationTime),
		zap.Bool("saved", resp.StorySaved),
		zap.Bool("emotion_tagged", resp.EmotionTagged),
		zap.Int("images", resp.ImagesGenerated),
	)
	return resp, nil
}

// loadContinuation находит главу-родителя. Родитель уже сохранен, поэтому цепочка не может замкнуться.
func (s *StoryService) loadContinuation(ctx context.Context, parentStoryID string) (*prompt.Continuation, *string, error) {
	parentStoryID = strings.TrimSpace(parentStoryID)
	if parentStoryID == "" {
		return nil, nil, nil
	}

	parent, err := s.stories.GetStory(ctx, parentStoryID)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			return nil, nil, fmt.Errorf("parent story %s: %w", parentStoryID, err)
		}
		s.logger.Error("Failed to load parent story", zap.String("parent_story_id", parentStoryID), zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	synopsis := parent.Synopsis
	if synopsis == "" {
		synopsis = Synopsis(parent.StoryText)
	}
	return &prompt.Continuation{
		Chapter:  max(parent.ChapterNumber, 1) + 1,
		Synopsis: synopsis,
	}, &parent.StoryID, nil
}

func (s *StoryService) fromCache(ctx context.Context, key string, req models.StoryRequest, log *zap.Logger) (*models.StoryResponse, bool) {
	entry, err := s.cache.GetCachedStory(ctx, key)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			degradedStepsTotal.WithLabelValues(stepCache).Inc()
			log.Warn("Cache lookup failed, generating new story", zap.Error(err))
		}
		return nil, false
	}

	storiesTotal.WithLabelValues(string(req.ProfileType), sourceCached).Inc()
	log.Info("Cache hit", zap.String("cache_key", key), zap.Int("access_count", entry.AccessCount))

	resp := &models.StoryResponse{
		StoryID:           uuid.NewString(),
		StoryText:         entry.Story,
		EmotionTaggedText: entry.Story,
		Images:            []models.ImageResult{},
		ProfileUsed:       req.ProfileType,
		ChapterNumber:     1,
		Cached:            true,
	}
	numImages := 0
	if req.GenerateImages && s.images.Enabled() {
		numImages = NumImagesFor(entry.Story, req.PagesPerImage)
	}
	// попадание в кэш сохраняется в историю ребенка как новая первая глава
	resp.StorySaved = s.persist(ctx, s.newRecord(resp.StoryID, req, entry.Story, numImages), log)
	s.decorate(ctx, resp, req, numImages)
	return resp, true
}

func (s *StoryService) newRecord(storyID string, req models.StoryRequest, story string, numImages int) *models.StoryRecord {
	return &models.StoryRecord{
		StoryID:       storyID,
		ChildID:       req.ChildID,
		StoryText:     story,
		ProfileType:   req.ProfileType,
		Theme:         req.Theme,
		Age:           req.Age,
		Interests:     req.Interests,
		StoryLength:   req.StoryLength,
		ChapterNumber: 1,
		Synopsis:      Synopsis(story),
		ImageCount:    numImages,
		Timestamp:     s.now().UTC(),
	}
}

// cacheable: без темы промпт строится из интересов, а они в ключ кэша не входят.
func cacheable(req models.StoryRequest) bool {
	if !prompt.IsFairyTaleMix(req.Theme, nil) {
		return true
	}
	return prompt.IsFairyTaleMix(req.Theme, req.Interests)
}

// decorate добавляет теги эмоций и иллюстрации. Оба шага best-effort.
func (s *StoryService) decorate(ctx context.Context, resp *models.StoryResponse, req models.StoryRequest, numImages int) {
	if s.cfg.EmotionTaggingEnabled && s.tagger != nil {
		pages, tagged := s.tagger.TagPages(ctx, SplitParagraphs(resp.StoryText), req.Mood, req.Theme)
		if tagged {
			resp.EmotionTaggedText = strings.Join(pages, pageSeparator)
		}
		resp.EmotionTagged = tagged
		if !tagged {
			degradedStepsTotal.WithLabelValues(stepEmotion).Inc()
		}
	}

	if numImages > 0 {
		resp.Images = s.images.Illustrate(ctx, resp.StoryText, req.Age, req.Theme, numImages)
		resp.ImagesGenerated = len(resp.Images)
		if resp.ImagesGenerated < numImages {
			degradedStepsTotal.WithLabelValues(stepImages).Inc()
		}
	}
}

func (s *StoryService) persist(ctx context.Context, record *models.StoryRecord, log *zap.Logger) bool {
	if err := s.stories.SaveStory(ctx, record); err != nil {
		degradedStepsTotal.WithLabelValues(stepPersist).Inc()
		log.Error("Failed to save story to history", zap.String("story_id", record.StoryID), zap.Error(err))
		return false
	}

	event := messaging.StoryGeneratedEvent{
		StoryID:       record.StoryID,
		ChildID:       record.ChildID,
		ProfileType:   string(record.ProfileType),
		Theme:         record.Theme,
		ChapterNumber: record.ChapterNumber,
		CreatedAt:     record.Timestamp,
	}
	if record.ParentStoryID != nil {
		event.ParentStoryID = *record.ParentStoryID
	}
	if err := s.publisher.PublishStoryGenerated(ctx, event); err != nil {
		degradedStepsTotal.WithLabelValues(stepPublish).Inc()
		log.Warn("Failed to publish story event", zap.String("story_id", record.StoryID), zap.Error(err))
	}
	return true
}

func (s *StoryService) saveToCache(ctx context.Context, key, story string, log *zap.Logger) {
	if err := s.cache.SaveCachedStory(ctx, key, story, s.cfg.CacheTTL); err != nil {
		degradedStepsTotal.WithLabelValues(stepCache).Inc()
		log.Error("Failed to cache story", zap.String("cache_key", key), zap.Error(err))
	}
}

// History возвращает последние истории ребенка, новые первыми. limit приводится к [1, 50].
func (s *StoryService) History(ctx context.Context, childID string, limit int) ([]models.StoryRecord, error) {
	if childID == "" {
		return nil, models.NewValidationError("child_id query parameter is required")
	}
	stories, err := s.stories.GetHistory(ctx, childID, repository.ClampHistoryLimit(limit))
	if err != nil {
		s.logger.Error("Failed to retrieve history", zap.String("child_id", childID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	return stories, nil
}

// Synopsis - краткое содержание главы для продолжения: первые абзацы без тегов, до 400 символов.
func Synopsis(story string) string {
	var b strings.Builder
	for _, p := range SplitParagraphs(StripEmotionTags(story)) {
		p = normalizeSpace(p)
		if b.Len() > 0 && b.Len()+len(p)+1 > synopsisMaxLength {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return truncateRunes(b.String(), synopsisMaxLength)
}
