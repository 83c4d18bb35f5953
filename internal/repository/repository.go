package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storyweave/internal/models"
)

// DBTX - общий интерфейс пула pgx и транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoryRepository хранит сгенерированные истории.
type StoryRepository interface {
	// SaveStory сохраняет запись. StoryID и Timestamp заполняет вызывающий.
	SaveStory(ctx context.Context, story *models.StoryRecord) error

	// GetStory возвращает models.ErrStoryNotFound, если истории нет.
	GetStory(ctx context.Context, storyID string) (*models.StoryRecord, error)

	// GetHistory возвращает до limit последних историй ребенка, новые первыми.
	GetHistory(ctx context.Context, childID string, limit int) ([]models.StoryRecord, error)
}

// ProfileRepository хранит профили детей. Сохранение всегда полное.
type ProfileRepository interface {
	SaveProfile(ctx context.Context, profile *models.ChildProfile) error

	// GetProfile возвращает models.ErrProfileNotFound, если профиля нет.
	GetProfile(ctx context.Context, childID string) (*models.ChildProfile, error)

	ListProfilesByUser(ctx context.Context, userEmail string) ([]models.ChildProfile, error)
}

// UserRepository хранит учетные записи.
type UserRepository interface {
	// CreateUser возвращает models.ErrUserAlreadyExists для занятого email.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail возвращает models.ErrUserNotFound, если пользователя нет.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CacheRepository - кэш историй по отпечатку запроса. Срок жизни контролирует хранилище.
type CacheRepository interface {
	// GetCachedStory возвращает models.ErrNotFound при промахе или истекшей записи.
	// Каждое попадание увеличивает AccessCount.
	GetCachedStory(ctx context.Context, key string) (*models.CacheEntry, error)

	SaveCachedStory(ctx context.Context, key, story string, ttl time.Duration) error
}

// Store объединяет репозитории выбранных бэкендов.
type Store struct {
	Stories  StoryRepository
	Profiles ProfileRepository
	Users    UserRepository
	Cache    CacheRepository
}

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// ClampHistoryLimit приводит limit к диапазону [1, MaxHistoryLimit].
func ClampHistoryLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
