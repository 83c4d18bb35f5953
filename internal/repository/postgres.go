package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"storyweave/internal/models"
)

// MigrationsFS содержит SQL-миграции схемы Postgres.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - каталог миграций внутри MigrationsFS.
const MigrationsPath = "migrations"

const (
	insertStoryQuery = `
		INSERT INTO stories (story_id, child_id, story_text, profile_type, theme, age, interests,
			story_length, parent_story_id, chapter_number, synopsis, image_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (story_id) DO UPDATE SET
			story_text = EXCLUDED.story_text,
			synopsis = EXCLUDED.synopsis,
			image_count = EXCLUDED.image_count
	`
	storyColumns = `story_id, child_id, story_text, profile_type, theme, age, interests,
		story_length, parent_story_id, chapter_number, synopsis, image_count, created_at`
	getStoryQuery   = `SELECT ` + storyColumns + ` FROM stories WHERE story_id = $1`
	getHistoryQuery = `SELECT ` + storyColumns + ` FROM stories WHERE child_id = $1 ORDER BY created_at DESC LIMIT $2`

	upsertProfileQuery = `
		INSERT INTO profiles (child_id, user_email, age, cognitive_profile, sensory_preferences,
			interests, story_length_preference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (child_id) DO UPDATE SET
			user_email = EXCLUDED.user_email,
			age = EXCLUDED.age,
			cognitive_profile = EXCLUDED.cognitive_profile,
			sensory_preferences = EXCLUDED.sensory_preferences,
			interests = EXCLUDED.interests,
			story_length_preference = EXCLUDED.story_length_preference,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`
	profileColumns = `child_id, user_email, age, cognitive_profile, sensory_preferences, interests,
		story_length_preference, created_at, updated_at`
	getProfileQuery          = `SELECT ` + profileColumns + ` FROM profiles WHERE child_id = $1`
	listProfilesByUserQuery  = `SELECT ` + profileColumns + ` FROM profiles WHERE user_email = $1 ORDER BY created_at`
	insertUserQuery          = `INSERT INTO users (email, password_hash, name, created_at) VALUES ($1, $2, $3, $4)`
	getUserByEmailQuery      = `SELECT email, password_hash, name, created_at FROM users WHERE email = $1`
	uniqueViolationErrorCode = "23505"
)

var (
	_ StoryRepository   = (*PgStore)(nil)
	_ ProfileRepository = (*PgStore)(nil)
	_ UserRepository    = (*PgStore)(nil)
)

// PgStore - хранилище историй, профилей и пользователей в PostgreSQL.
type PgStore struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStore создает хранилище поверх пула или транзакции.
func NewPgStore(db DBTX, logger *zap.Logger) *PgStore {
	return &PgStore{
		db:     db,
		logger: logger.Named("PgStore"),
	}
}

// storyRow и profileRow отделяют колонки text[] от именованных типов модели.
type storyRow struct {
	StoryID       string    `db:"story_id"`
	ChildID       string    `db:"child_id"`
	StoryText     string    `db:"story_text"`
	ProfileType   string    `db:"profile_type"`
	Theme         string    `db:"theme"`
	Age           int       `db:"age"`
	Interests     []string  `db:"interests"`
	StoryLength   int       `db:"story_length"`
	ParentStoryID *string   `db:"parent_story_id"`
	ChapterNumber int       `db:"chapter_number"`
	Synopsis      string    `db:"synopsis"`
	ImageCount    int       `db:"image_count"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r storyRow) toModel() models.StoryRecord {
	return models.StoryRecord{
		StoryID:       r.StoryID,
		ChildID:       r.ChildID,
		StoryText:     r.StoryText,
		ProfileType:   models.ProfileType(r.ProfileType),
		Theme:         r.Theme,
		Age:           r.Age,
		Interests:     nonNilStrings(r.Interests),
		StoryLength:   r.StoryLength,
		ParentStoryID: r.ParentStoryID,
		ChapterNumber: r.ChapterNumber,
		Synopsis:      r.Synopsis,
		ImageCount:    r.ImageCount,
		Timestamp:     r.CreatedAt,
	}
}

type profileRow struct {
	ChildID               string         `db:"child_id"`
	UserEmail             string         `db:"user_email"`
	Age                   int            `db:"age"`
	CognitiveProfile      []string       `db:"cognitive_profile"`
	SensoryPreferences    map[string]any `db:"sensory_preferences"`
	Interests             []string       `db:"interests"`
	StoryLengthPreference int            `db:"story_length_preference"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func (r profileRow) toModel() models.ChildProfile {
	cognitive := make([]models.ProfileType, 0, len(r.CognitiveProfile))
	for _, p := range r.CognitiveProfile {
		cognitive = append(cognitive, models.ProfileType(p))
	}
	return models.ChildProfile{
		ChildID:               r.ChildID,
		UserEmail:             r.UserEmail,
		Age:                   r.Age,
		CognitiveProfile:      cognitive,
		SensoryPreferences:    nonNilMap(r.SensoryPreferences),
		Interests:             nonNilStrings(r.Interests),
		StoryLengthPreference: r.StoryLengthPreference,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func (s *PgStore) SaveStory(ctx context.Context, story *models.StoryRecord) error {
	_, err := s.db.Exec(ctx, insertStoryQuery,
		story.StoryID, story.ChildID, story.StoryText, string(story.ProfileType), story.Theme, story.Age,
		nonNilStrings(story.Interests), story.StoryLength, story.ParentStoryID, story.ChapterNumber,
		story.Synopsis, story.ImageCount, story.Timestamp,
	)
	if err != nil {
		s.logger.Error("Failed to save story", zap.String("story_id", story.StoryID), zap.Error(err))
		return fmt.Errorf("failed to save story in postgres: %w", err)
	}
	return nil
}

func (s *PgStore) GetStory(ctx context.Context, storyID string) (*models.StoryRecord, error) {
	var row storyRow
	if err := pgxscan.Get(ctx, s.db, &row, getStoryQuery, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		s.logger.Error("Failed to get story", zap.String("story_id", storyID), zap.Error(err))
		return nil, fmt.Errorf("failed to get story from postgres: %w", err)
	}
	record := row.toModel()
	return &record, nil
}

func (s *PgStore) GetHistory(ctx context.Context, childID string, limit int) ([]models.StoryRecord, error) {
	var rows []storyRow
	if err := pgxscan.Select(ctx, s.db, &rows, getHistoryQuery, childID, limit); err != nil {
		s.logger.Error("Failed to get story history", zap.String("child_id", childID), zap.Error(err))
		return nil, fmt.Errorf("failed to get story history from postgres: %w", err)
	}
	history := make([]models.StoryRecord, 0, len(rows))
	for _, row := range rows {
		history = append(history, row.toModel())
	}
	return history, nil
}

func (s *PgStore) SaveProfile(ctx context.Context, profile *models.ChildProfile) error {
	cognitive := make([]string, 0, len(profile.CognitiveProfile))
	for _, p := range profile.CognitiveProfile {
		cognitive = append(cognitive, string(p))
	}
	_, err := s.db.Exec(ctx, upsertProfileQuery,
		profile.ChildID, profile.UserEmail, profile.Age, cognitive, nonNilMap(profile.SensoryPreferences),
		nonNilStrings(profile.Interests), profile.StoryLengthPreference, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to save profile", zap.String("child_id", profile.ChildID), zap.Error(err))
		return fmt.Errorf("failed to save profile in postgres: %w", err)
	}
	return nil
}

func (s *PgStore) GetProfile(ctx context.Context, childID string) (*models.ChildProfile, error) {
	var row profileRow
	if err := pgxscan.Get(ctx, s.db, &row, getProfileQuery, childID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		s.logger.Error("Failed to get profile", zap.String("child_id", childID), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile from postgres: %w", err)
	}
	profile := row.toModel()
	return &profile, nil
}

func (s *PgStore) ListProfilesByUser(ctx context.Context, userEmail string) ([]models.ChildProfile, error) {
	var rows []profileRow
	if err := pgxscan.Select(ctx, s.db, &rows, listProfilesByUserQuery, userEmail); err != nil {
		s.logger.Error("Failed to list profiles", zap.String("user_email", userEmail), zap.Error(err))
		return nil, fmt.Errorf("failed to list profiles from postgres: %w", err)
	}
	profiles := make([]models.ChildProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toModel())
	}
	return profiles, nil
}

func (s *PgStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Exec(ctx, insertUserQuery, user.Email, user.PasswordHash, user.Name, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrorCode {
			s.logger.Warn("Attempted to create duplicate user", zap.String("email", user.Email))
			return models.ErrUserAlreadyExists
		}
		s.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	return nil
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := pgxscan.Get(ctx, s.db, &user, getUserByEmailQuery, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user by email from postgres: %w", err)
	}
	return &user, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilMap(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}
