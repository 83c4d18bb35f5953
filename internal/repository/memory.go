package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"storyweave/internal/models"
)

const memoryCacheCleanupInterval = 10 * time.Minute

var (
	_ StoryRepository   = (*MemoryStore)(nil)
	_ ProfileRepository = (*MemoryStore)(nil)
	_ UserRepository    = (*MemoryStore)(nil)
	_ CacheRepository   = (*MemoryStore)(nil)
)

// MemoryStore - хранилище в памяти процесса. Используется в разработке
// и как запасной вариант, когда основной бэкенд недоступен при старте.
type MemoryStore struct {
	mu       sync.RWMutex
	stories  map[string]models.StoryRecord
	profiles map[string]models.ChildProfile
	users    map[string]models.User
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		stories:  make(map[string]models.StoryRecord),
		profiles: make(map[string]models.ChildProfile),
		users:    make(map[string]models.User),
		cache:    cache.New(cache.NoExpiration, memoryCacheCleanupInterval),
		logger:   logger.Named("MemoryStore"),
	}
}

// Store возвращает набор репозиториев, целиком обслуживаемый памятью.
func (s *MemoryStore) Store() Store {
	return Store{Stories: s, Profiles: s, Users: s, Cache: s}
}

func (s *MemoryStore) SaveStory(_ context.Context, story *models.StoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := *story
	record.Interests = slices.Clone(story.Interests)
	s.stories[story.StoryID] = record
	s.logger.Debug("Story saved", zap.String("story_id", story.StoryID), zap.String("child_id", story.ChildID))
	return nil
}

func (s *MemoryStore) GetStory(_ context.Context, storyID string) (*models.StoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.stories[storyID]
	if !ok {
		return nil, models.ErrStoryNotFound
	}
	record.Interests = slices.Clone(record.Interests)
	return &record, nil
}

func (s *MemoryStore) GetHistory(_ context.Context, childID string, limit int) ([]models.StoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]models.StoryRecord, 0)
	for _, record := range s.stories {
		if record.ChildID == childID {
			record.Interests = slices.Clone(record.Interests)
			history = append(history, record)
		}
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, profile *models.ChildProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.ChildID] = *profile
	s.logger.Debug("Profile saved", zap.String("child_id", profile.ChildID))
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, childID string) (*models.ChildProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[childID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return &profile, nil
}

func (s *MemoryStore) ListProfilesByUser(_ context.Context, userEmail string) ([]models.ChildProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]models.ChildProfile, 0)
	for _, profile := range s.profiles {
		if profile.UserEmail == userEmail {
			profiles = append(profiles, profile)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})
	return profiles, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return models.ErrUserAlreadyExists
	}
	s.users[user.Email] = *user
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &user, nil
}

func (s *MemoryStore) GetCachedStory(_ context.Context, key string) (*models.CacheEntry, error) {
	// Полная блокировка: попадание меняет счетчик обращений.
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.cache.Get(key)
	if !found {
		return nil, models.ErrNotFound
	}
	entry := item.(*models.CacheEntry)
	entry.AccessCount++
	result := *entry
	return &result, nil
}

func (s *MemoryStore) SaveCachedStory(_ context.Context, key, story string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(key, &models.CacheEntry{
		CacheKey:  key,
		Story:     story,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}, ttl)
	return nil
}
