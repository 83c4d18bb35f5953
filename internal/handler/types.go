package handler

import (
	"strings"

	"storyweave/internal/models"
)

// Обязательные поля - указатели, чтобы отличить отсутствие поля от нулевого значения.
type generateStoryRequest struct {
	ProfileType    *string  `json:"profile_type"`
	Age            *int     `json:"age"`
	Theme          *string  `json:"theme"`
	StoryLength    *int     `json:"story_length"`
	Interests      []string `json:"interests"`
	ChildID        string   `json:"child_id"`
	Mood           string   `json:"mood"`
	GenerateImages bool     `json:"generate_images"`
	PagesPerImage  int      `json:"pages_per_image"`
	ParentStoryID  string   `json:"parent_story_id"`
	DemoMode       bool     `json:"demo_mode"`
}

func (r generateStoryRequest) missingFields() []string {
	var missing []string
	if r.ProfileType == nil {
		missing = append(missing, "profile_type")
	}
	if r.Age == nil {
		missing = append(missing, "age")
	}
	if r.Theme == nil {
		missing = append(missing, "theme")
	}
	if r.StoryLength == nil {
		missing = append(missing, "story_length")
	}
	return missing
}

func (r generateStoryRequest) toModel() models.StoryRequest {
	return models.StoryRequest{
		ProfileType:    models.ProfileType(strings.ToLower(strings.TrimSpace(*r.ProfileType))),
		Age:            *r.Age,
		Theme:          *r.Theme,
		Interests:      r.Interests,
		StoryLength:    *r.StoryLength,
		ChildID:        r.ChildID,
		Mood:           r.Mood,
		GenerateImages: r.GenerateImages,
		PagesPerImage:  r.PagesPerImage,
		ParentStoryID:  r.ParentStoryID,
		DemoMode:       r.DemoMode,
	}
}

type historyResponse struct {
	ChildID string               `json:"child_id"`
	Stories []models.StoryRecord `json:"stories"`
	Count   int                  `json:"count"`
}

type saveProfileRequest struct {
	ChildID               string         `json:"child_id"`
	UserEmail             string         `json:"user_email"`
	Age                   *int           `json:"age"`
	CognitiveProfile      []string       `json:"cognitive_profile"`
	SensoryPreferences    map[string]any `json:"sensory_preferences"`
	Interests             []string       `json:"interests"`
	StoryLengthPreference int            `json:"story_length_preference"`
}

type saveProfileResponse struct {
	ChildID        string `json:"child_id"`
	ProfileCreated string `json:"profile_created"`
	ProfileSaved   bool   `json:"profile_saved"`
	Success        bool   `json:"success"`
}

type profilesResponse struct {
	UserEmail string                `json:"user_email"`
	Profiles  []models.ChildProfile `json:"profiles"`
	Count     int                   `json:"count"`
}

type generateAudioRequest struct {
	Text    *string `json:"text"`
	VoiceID string  `json:"voice_id"`
	Mood    string  `json:"mood"`
	Theme   string  `json:"theme"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
