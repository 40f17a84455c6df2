package errors

import "net/http"

// AppError is a custom error type that includes an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on Kind so wrapped copies with a different message still compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithMessage returns a copy of e carrying a user-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{Code: e.Code, Kind: e.Kind, Message: msg}
}

func NewAppError(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Error taxonomy surfaced by the API
var (
	ErrValidation       = NewAppError(http.StatusBadRequest, "validation_error", "Invalid request parameters")
	ErrUnauthorized     = NewAppError(http.StatusUnauthorized, "unauthorized", "Unauthorized")
	ErrNotFound         = NewAppError(http.StatusNotFound, "not_found", "Resource not found")
	ErrQuotaExhausted   = NewAppError(http.StatusTooManyRequests, "quota_exhausted", "Daily free quota exhausted")
	ErrRateLimited      = NewAppError(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded")
	ErrGenerationFailed = NewAppError(http.StatusInternalServerError, "generation_failed", "AI generation failed")
	ErrInternalServer   = NewAppError(http.StatusInternalServerError, "internal", "Internal server error")
)

func BadRequest(msg string) *AppError {
	return ErrValidation.WithMessage(msg)
}

func Unauthorized(msg string) *AppError {
	return ErrUnauthorized.WithMessage(msg)
}

func NotFound(msg string) *AppError {
	return ErrNotFound.WithMessage(msg)
}

func QuotaExhausted(msg string) *AppError {
	return ErrQuotaExhausted.WithMessage(msg)
}

func Internal(msg string) *AppError {
	return ErrInternalServer.WithMessage(msg)
}
