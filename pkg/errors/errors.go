// Package errors defines the structured application error type and the
// error codes surfaced to API clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeInvalidCreds ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidCode  ErrorCode = "INVALID_TOTP_CODE"
	ErrCodeLocked       ErrorCode = "ACCOUNT_LOCKED"

	// Authorization errors
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// Not found errors
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrCodeLinkNotFound ErrorCode = "LINK_NOT_FOUND"

	// Conflict errors
	ErrCodeConflict    ErrorCode = "CONFLICT"
	ErrCodeEmailExists ErrorCode = "EMAIL_EXISTS"

	// Share link errors
	ErrCodeLinkExpired     ErrorCode = "LINK_EXPIRED"
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"

	// Storage/crypto integrity errors
	ErrCodeCorruptCiphertext ErrorCode = "CORRUPT_CIPHERTEXT"
	ErrCodeObjectUnavailable ErrorCode = "OBJECT_UNAVAILABLE"
	ErrCodeStorage           ErrorCode = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError represents a structured application error with code, message, and HTTP status
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface, returning a formatted error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the given code, message, and HTTP status code
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an existing error with an AppError, preserving the original error
func Wrap(code ErrorCode, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Validation errors
func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest)
}

func InvalidInputError(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// Authentication errors
func UnauthorizedError(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func InvalidTokenError(message string) *AppError {
	return New(ErrCodeInvalidToken, message, http.StatusUnauthorized)
}

func InvalidCredentialsError() *AppError {
	return New(ErrCodeInvalidCreds, "Invalid email or password", http.StatusUnauthorized)
}

func InvalidTOTPCodeError() *AppError {
	return New(ErrCodeInvalidCode, "Invalid TOTP code", http.StatusBadRequest)
}

func AccountLockedError() *AppError {
	return New(ErrCodeLocked, "Account temporarily locked due to repeated failures", http.StatusTooManyRequests)
}

// Authorization errors
func ForbiddenError(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// Not found errors
func NotFoundError(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func UserNotFoundError() *AppError {
	return New(ErrCodeUserNotFound, "User not found", http.StatusNotFound)
}

func FileNotFoundError() *AppError {
	return New(ErrCodeFileNotFound, "File not found", http.StatusNotFound)
}

func LinkNotFoundError() *AppError {
	return New(ErrCodeLinkNotFound, "Share link not found", http.StatusNotFound)
}

// Conflict errors
func ConflictError(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

func EmailExistsError() *AppError {
	return New(ErrCodeEmailExists, "Email already registered", http.StatusBadRequest)
}

// Share link errors
func LinkExpiredError() *AppError {
	return New(ErrCodeLinkExpired, "Share link has expired", http.StatusBadRequest)
}

func InvalidDurationError(maxHours int) *AppError {
	return New(ErrCodeInvalidDuration, fmt.Sprintf("Link duration must be between 1 and %d hours", maxHours), http.StatusBadRequest)
}

// Storage/crypto integrity errors. Decryption failures are surfaced without
// cipher detail; the wrapped cause stays server-side.
func CorruptCiphertextError(err error) *AppError {
	return Wrap(ErrCodeCorruptCiphertext, "Stored file could not be decrypted", http.StatusInternalServerError, err)
}

func ObjectUnavailableError(err error) *AppError {
	return Wrap(ErrCodeObjectUnavailable, "File contents are unavailable", http.StatusNotFound, err)
}

func StorageError(err error) *AppError {
	return Wrap(ErrCodeStorage, "Storage error", http.StatusInternalServerError, err)
}

// Internal errors
func InternalError(message string) *AppError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(err error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", http.StatusInternalServerError, err)
}

// IsCode reports whether err is an AppError carrying the given code
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetAppError extracts AppError from an error, wrapping non-AppErrors as InternalError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrCodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
