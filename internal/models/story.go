package models

import "time"

// ProfileType - когнитивный профиль, определяющий шаблон и темп истории.
type ProfileType string

const (
	ProfileADHD    ProfileType = "adhd"
	ProfileAutism  ProfileType = "autism"
	ProfileAnxiety ProfileType = "anxiety"
	ProfileGeneral ProfileType = "general"
)

// ProfileTypes перечисляет допустимые профили в стабильном порядке.
var ProfileTypes = []ProfileType{ProfileADHD, ProfileAutism, ProfileAnxiety, ProfileGeneral}

// IsValid сообщает, входит ли профиль в перечисление.
func (p ProfileType) IsValid() bool {
	for _, known := range ProfileTypes {
		if p == known {
			return true
		}
	}
	return false
}

// AllowedStoryLengths - допустимая длительность истории в минутах.
var AllowedStoryLengths = []int{5, 10, 15}

const (
	MinChildAge = 3
	MaxChildAge = 12

	DefaultMood          = "calm"
	DefaultChildID       = "anonymous"
	DefaultPagesPerImage = 4
)

// StoryRequest - параметры генерации истории после разбора HTTP-запроса.
type StoryRequest struct {
	ProfileType    ProfileType
	Age            int
	Theme          string
	Interests      []string
	StoryLength    int
	ChildID        string
	Mood           string
	GenerateImages bool
	PagesPerImage  int
	ParentStoryID  string
	DemoMode       bool
}

// StoryRecord - сохраненная история. Главы связываются через ParentStoryID в линейную цепочку.
type StoryRecord struct {
	StoryID       string      `json:"story_id" db:"story_id" dynamodbav:"story_id"`
	ChildID       string      `json:"child_id" db:"child_id" dynamodbav:"child_id"`
	StoryText     string      `json:"story_text" db:"story_text" dynamodbav:"story_text"`
	ProfileType   ProfileType `json:"profile_type" db:"profile_type" dynamodbav:"profile_type"`
	Theme         string      `json:"theme" db:"theme" dynamodbav:"theme"`
	Age           int         `json:"age" db:"age" dynamodbav:"age"`
	Interests     []string    `json:"interests" db:"interests" dynamodbav:"interests"`
	StoryLength   int         `json:"story_length" db:"story_length" dynamodbav:"story_length"`
	ParentStoryID *string     `json:"parent_story_id,omitempty" db:"parent_story_id" dynamodbav:"parent_story_id,omitempty"`
	ChapterNumber int         `json:"chapter_number" db:"chapter_number" dynamodbav:"chapter_number"`
	Synopsis      string      `json:"synopsis,omitempty" db:"synopsis" dynamodbav:"synopsis,omitempty"`
	ImageCount    int         `json:"image_count" db:"image_count" dynamodbav:"image_count"`
	Timestamp     time.Time   `json:"timestamp" db:"created_at" dynamodbav:"timestamp"`
}

// CacheEntry - закэшированная история для отпечатка параметров запроса.
type CacheEntry struct {
	CacheKey    string `json:"cache_key" dynamodbav:"cache_key"`
	Story       string `json:"story" dynamodbav:"story"`
	ExpiresAt   int64  `json:"expires_at" dynamodbav:"expires_at"`
	AccessCount int    `json:"access_count" dynamodbav:"access_count"`
}

// ImageResult - одна иллюстрация и ее привязка к абзацу истории.
type ImageResult struct {
	ImageIndex           int    `json:"image_index"`
	ParagraphIndex       int    `json:"paragraph_index"`
	ImageData            string `json:"image_data"`
	MimeType             string `json:"mime_type"`
	Prompt               string `json:"prompt"`
	CharacterDescription string `json:"character_description"`
}

// StoryResponse - ответ POST /generate-story.
// EmotionTagged, ImagesGenerated и StorySaved сообщают о деградации best-effort шагов.
type StoryResponse struct {
	StoryID           string        `json:"story_id"`
	StoryText         string        `json:"story_text"`
	EmotionTaggedText string        `json:"emotion_tagged_text,omitempty"`
	Images            []ImageResult `json:"images"`
	ProfileUsed       ProfileType   `json:"profile_used"`
	ChapterNumber     int           `json:"chapter_number"`
	GenerationTime    float64       `json:"generation_time"`
	Cached            bool          `json:"cached"`
	Fallback          bool          `json:"fallback"`
	Warning           string        `json:"warning,omitempty"`
	EmotionTagged     bool          `json:"emotion_tagged"`
	ImagesGenerated   int           `json:"images_generated"`
	StorySaved        bool          `json:"story_saved"`
}
