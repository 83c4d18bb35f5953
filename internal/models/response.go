package models

// ErrorResponse - единый формат ответа об ошибке.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse - статический ответ проверки живости.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
