package service

import (
	"net/mail"
	"slices"
	"strings"

	"storyweave/internal/models"
)

// ValidateProfileType проверяет профиль из перечисления.
func ValidateProfileType(p models.ProfileType) error {
	if !p.IsValid() {
		return models.NewValidationError("Invalid profile_type. Must be 'adhd', 'autism', 'anxiety', or 'general'")
	}
	return nil
}

// ValidateAge проверяет возраст в диапазоне [3, 12].
func ValidateAge(age int) error {
	if age < models.MinChildAge || age > models.MaxChildAge {
		return models.NewValidationError("Invalid age. Must be between %d and %d", models.MinChildAge, models.MaxChildAge)
	}
	return nil
}

// ValidateStoryLength проверяет длительность 5, 10 или 15 минут.
func ValidateStoryLength(minutes int) error {
	if !slices.Contains(models.AllowedStoryLengths, minutes) {
		return models.NewValidationError("Invalid story_length. Must be 5, 10, or 15")
	}
	return nil
}

// ValidateStoryRequest выполняется до любого обращения к модели.
func ValidateStoryRequest(req *models.StoryRequest) error {
	if err := ValidateProfileType(req.ProfileType); err != nil {
		return err
	}
	if err := ValidateAge(req.Age); err != nil {
		return err
	}
	if err := ValidateStoryLength(req.StoryLength); err != nil {
		return err
	}
	if req.PagesPerImage < 0 {
		return models.NewValidationError("pages_per_image must be a positive number")
	}
	return nil
}

// ValidateEmail принимает только голый адрес без отображаемого имени.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.NewValidationError("Invalid email address")
	}
	return nil
}

// SanitizeInput обрезает пробелы и ограничивает длину пользовательского текста.
func SanitizeInput(text string, maxLength int) string {
	return truncateRunes(strings.TrimSpace(text), maxLength)
}
