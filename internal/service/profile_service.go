package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyweave/internal/models"
	"storyweave/internal/repository"
)

// ProfileInput - профиль из запроса. Пустой ChildID означает новый профиль.
type ProfileInput struct {
	ChildID               string
	UserEmail             string
	Age                   int
	CognitiveProfile      []models.ProfileType
	SensoryPreferences    map[string]any
	Interests             []string
	StoryLengthPreference int
}

// ProfileService сохраняет профили только целиком.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewProfileService(profiles repository.ProfileRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger.Named("ProfileService"),
		now:      time.Now,
	}
}

func validateProfileInput(in ProfileInput) error {
	if err := ValidateAge(in.Age); err != nil {
		return err
	}
	if len(in.CognitiveProfile) == 0 {
		return models.NewValidationError("cognitive_profile must be a non-empty list")
	}
	for _, p := range in.CognitiveProfile {
		if !p.IsValid() {
			return models.NewValidationError("Invalid profile type: %s", p)
		}
	}
	if in.StoryLengthPreference != 0 {
		if err := ValidateStoryLength(in.StoryLengthPreference); err != nil {
			return err
		}
	}
	if in.UserEmail != "" {
		if err := ValidateEmail(normalizeEmail(in.UserEmail)); err != nil {
			return err
		}
	}
	return nil
}

// Save заменяет профиль целиком. Ошибка записи логируется и не возвращается клиенту.
// Возвращает профиль и признак того, что он действительно сохранен.
func (s *ProfileService) Save(ctx context.Context, in ProfileInput) (*models.ChildProfile, bool, error) {
	if err := validateProfileInput(in); err != nil {
		return nil, false, err
	}

	now := s.now().UTC()
	profile := &models.ChildProfile{
		ChildID:               in.ChildID,
		UserEmail:             normalizeEmail(in.UserEmail),
		Age:                   in.Age,
		CognitiveProfile:      uniqueProfiles(in.CognitiveProfile),
		SensoryPreferences:    in.SensoryPreferences,
		Interests:             sanitizeInterests(in.Interests),
		StoryLengthPreference: in.StoryLengthPreference,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if profile.SensoryPreferences == nil {
		profile.SensoryPreferences = map[string]any{}
	}
	if profile.StoryLengthPreference == 0 {
		profile.StoryLengthPreference = models.DefaultStoryLengthPreference
	}

	if profile.ChildID == "" {
		profile.ChildID = uuid.NewString()
	} else if existing, err := s.profiles.GetProfile(ctx, profile.ChildID); err == nil {
		profile.CreatedAt = existing.CreatedAt
	}

	log := s.logger.With(zap.String("child_id", profile.ChildID))
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		degradedStepsTotal.WithLabelValues(stepProfiles).Inc()
		log.Warn("Could not persist profile, returning it unsaved", zap.Error(err))
		return profile, false, nil
	}
	log.Info("Profile saved")
	return profile, true, nil
}

func (s *ProfileService) Get(ctx context.Context, childID string) (*models.ChildProfile, error) {
	if childID == "" {
		return nil, models.NewValidationError("child_id query parameter is required")
	}
	profile, err := s.profiles.GetProfile(ctx, childID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get profile", zap.String("child_id", childID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	return profile, nil
}

func (s *ProfileService) ListByUser(ctx context.Context, userEmail string) ([]models.ChildProfile, error) {
	userEmail = normalizeEmail(userEmail)
	if userEmail == "" {
		return nil, models.NewValidationError("user_email query parameter is required")
	}
	if err := ValidateEmail(userEmail); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.ListProfilesByUser(ctx, userEmail)
	if err != nil {
		s.logger.Error("Failed to list profiles", zap.String("user_email", userEmail), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	return profiles, nil
}

const (
	maxInterests      = 10
	maxInterestLength = 50
)

func sanitizeInterests(interests []string) []string {
	clean := make([]string, 0, len(interests))
	for _, interest := range interests {
		if interest = SanitizeInput(interest, maxInterestLength); interest != "" {
			clean = append(clean, interest)
		}
		if len(clean) == maxInterests {
			break
		}
	}
	return clean
}

func uniqueProfiles(profiles []models.ProfileType) []models.ProfileType {
	seen := make(map[models.ProfileType]struct{}, len(profiles))
	unique := make([]models.ProfileType, 0, len(profiles))
	for _, p := range profiles {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}
