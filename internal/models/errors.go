package models

import (
	"errors"
	"fmt"
)

// Ошибки уровня приложения. Сервисы оборачивают их через %w, обработчики сопоставляют через errors.Is.
var (
	// Ресурсы
	ErrNotFound        = errors.New("resource not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrStoryNotFound   = errors.New("story not found")

	// Пользователи и аутентификация
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Запросы
	ErrInvalidInput = errors.New("invalid input data")

	// Хранилище
	ErrUnavailable = errors.New("storage backend unavailable")
)

// ValidationError - ошибка входных данных с сообщением, которое можно показать клиенту.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError создает ValidationError, совместимую с errors.Is(err, ErrInvalidInput).
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
