package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
)

// ErrorCode - класс ошибки вызова модели.
type ErrorCode string

const (
	CodeThrottling         ErrorCode = "ThrottlingException"
	CodeValidation         ErrorCode = "ValidationException"
	CodeServiceUnavailable ErrorCode = "ServiceUnavailableException"
	CodeTimeout            ErrorCode = "ModelTimeoutException"
	CodeAccessDenied       ErrorCode = "AccessDeniedException"
	CodeNotFound           ErrorCode = "ResourceNotFoundException"
	CodeUnknown            ErrorCode = "UnknownError"
	CodeMaxRetries         ErrorCode = "MaxRetriesExceeded"
)

// GenerationError - классифицированная ошибка провайдера.
type GenerationError struct {
	Code ErrorCode
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Classify сводит ошибку go-openai, ollama или транспорта к ErrorCode.
func Classify(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &GenerationError{Code: classifyCode(err), Err: err}
}

// CodeOf возвращает код ошибки. Для неклассифицированных ошибок - CodeUnknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Classify(err).Code
}

func classifyCode(err error) ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return codeForStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return codeForStatus(reqErr.HTTPStatusCode)
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return codeForStatus(statusErr.StatusCode)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CodeServiceUnavailable
	}
	return CodeUnknown
}

func codeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		return CodeThrottling
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return CodeValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeAccessDenied
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CodeTimeout
	case status >= http.StatusInternalServerError:
		return CodeServiceUnavailable
	default:
		return CodeUnknown
	}
}

var userMessages = map[ErrorCode]string{
	CodeThrottling:         "Too many requests. Please wait a moment and try again.",
	CodeValidation:         "Invalid request. Please check your story parameters.",
	CodeServiceUnavailable: "Service temporarily unavailable. Using cached story.",
	CodeTimeout:            "Story generation took too long. Please try a shorter story.",
	CodeAccessDenied:       "Story service credentials issue. Please contact support.",
	CodeNotFound:           "Model not found. Please check configuration.",
	CodeMaxRetries:         "Unable to generate story. Using pre-written story instead.",
}

// UserMessage возвращает текст для пользователя по коду ошибки.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return "An error occurred. Please try again."
}
