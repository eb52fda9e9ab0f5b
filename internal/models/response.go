package models

// Коды ошибок, возвращаемые в теле ответа вместе с HTTP-статусом.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeLimitReached     = "LIMIT_REACHED"
	ErrCodeAIDisabled       = "AI_DISABLED"
	ErrCodeProviderFailure  = "PROVIDER_FAILURE"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeUserExists       = "USER_EXISTS"
	ErrCodeBadCredentials   = "BAD_CREDENTIALS"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
)

// ErrorResponse - унифицированное тело ошибки API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse используется для простых подтверждений (logout и т.п.).
type StatusResponse struct {
	Status string `json:"status"`
}
