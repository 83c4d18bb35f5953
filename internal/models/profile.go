package models

import "time"

// ChildProfile - профиль ребенка. Сохраняется только целиком, частичных обновлений нет.
type ChildProfile struct {
	ChildID               string         `json:"child_id" db:"child_id" dynamodbav:"child_id"`
	UserEmail             string         `json:"user_email,omitempty" db:"user_email" dynamodbav:"user_email,omitempty"`
	Age                   int            `json:"age" db:"age" dynamodbav:"age"`
	CognitiveProfile      []ProfileType  `json:"cognitive_profile" db:"cognitive_profile" dynamodbav:"cognitive_profile"`
	SensoryPreferences    map[string]any `json:"sensory_preferences" db:"sensory_preferences" dynamodbav:"sensory_preferences"`
	Interests             []string       `json:"interests" db:"interests" dynamodbav:"interests"`
	StoryLengthPreference int            `json:"story_length_preference" db:"story_length_preference" dynamodbav:"story_length_preference"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at" dynamodbav:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at" dynamodbav:"updated_at"`
}

// DefaultStoryLengthPreference используется, если клиент не указал предпочтение.
const DefaultStoryLengthPreference = 10
