// Package httperr defines the error taxonomy every handler speaks and the
// echo error handler that renders it. Responses use the envelope
// {success:false, error, code, details?}; internals never leak outside
// debug mode.
package httperr

import (
	"fmt"
	"net/http"
)

type AppError struct {
	Status  int
	Code    string
	Message string
	Details any
	// Internal carries the wrapped cause for logs only.
	Internal error
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Internal }

func (e *AppError) WithInternal(err error) *AppError {
	clone := *e
	clone.Internal = err
	return &clone
}

func New(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func Validation(message string, details any) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: message, Details: details}
}

func MissingCredentials() *AppError {
	return New(http.StatusBadRequest, "MISSING_CREDENTIALS", "Employee ID and password are required")
}

// InvalidCredentials is deliberately identical for unknown identifiers and
// wrong passwords.
func InvalidCredentials() *AppError {
	return New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid employee ID or password")
}

func AccountInactive() *AppError {
	return New(http.StatusUnauthorized, "ACCOUNT_INACTIVE", "Account is inactive")
}

func AccountLocked(remainingMinutes int, unlockTime string) *AppError {
	return &AppError{
		Status:  http.StatusLocked,
		Code:    "ACCOUNT_LOCKED",
		Message: "Account temporarily locked",
		Details: map[string]any{
			"remainingTime": remainingMinutes,
			"unlockTime":    unlockTime,
		},
	}
}

func InvalidRefreshToken() *AppError {
	return New(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
}

func NotAuthenticated() *AppError {
	return New(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
}

func TokenMissing() *AppError {
	return New(http.StatusUnauthorized, "TOKEN_MISSING", "Access token required")
}

func TokenInvalid() *AppError {
	return New(http.StatusUnauthorized, "TOKEN_INVALID", "Invalid token")
}

func TokenExpired() *AppError {
	return New(http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired")
}

func SessionExpired() *AppError {
	return New(http.StatusUnauthorized, "SESSION_EXPIRED", "Invalid or expired session")
}

func InsufficientPermissions(required, held []string) *AppError {
	return &AppError{
		Status:  http.StatusForbidden,
		Code:    "INSUFFICIENT_PERMISSIONS",
		Message: "Insufficient permissions",
		Details: map[string]any{
			"required": required,
			"current":  held,
		},
	}
}

func NotFound(what string) *AppError {
	return New(http.StatusNotFound, "NOT_FOUND", what+" not found")
}

func Conflict(code, message string) *AppError {
	return New(http.StatusConflict, code, message)
}

func RateLimitExceeded(details any) *AppError {
	return &AppError{
		Status:  http.StatusTooManyRequests,
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "Rate limit exceeded",
		Details: details,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Status:   http.StatusInternalServerError,
		Code:     "INTERNAL_ERROR",
		Message:  "Internal server error",
		Internal: err,
	}
}
