// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid arguments, symbols, date ranges and paths
//   - Market data errors (700-799): Fetching, rate limiting, parsing and persisting
//
// The archiver distinguishes four failure classes, each backed by a code:
//
//	ConfigurationError  validation codes (100-199), fatal before any network call
//	FetchError          ErrCodeMarketDataFetchFailed / ErrCodeMarketDataParseFailed
//	RateLimitError      ErrCodeRateLimited, recovered inside the paginator
//	PersistenceError    ErrCodeMarketDataWriteFailed
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidConfiguration, "page size must be positive")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "request failed", originalErr)
//
//	// Check error class
//	if errors.IsFetchError(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsConfigurationError reports whether err is a validation failure that must abort the run.
func IsConfigurationError(err error) bool {
	code := GetCode(err)

	return code >= 100 && code < 200
}

// IsFetchError reports whether err is a remote failure scoped to one request window.
func IsFetchError(err error) bool {
	return HasCode(err, ErrCodeMarketDataFetchFailed) || HasCode(err, ErrCodeMarketDataParseFailed)
}

// IsPersistenceError reports whether err is a disk failure scoped to one day file.
func IsPersistenceError(err error) bool {
	return HasCode(err, ErrCodeMarketDataWriteFailed)
}

// RateLimitError is returned by the remote API when the client has to back off.
// RetryAfter is zero when the response carried no hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Status     int
	Message    string
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(status int, retryAfter time.Duration, message string) *RateLimitError {
	return &RateLimitError{
		RetryAfter: retryAfter,
		Status:     status,
		Message:    message,
	}
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("[%d] rate limited (HTTP %d, retry after %s): %s", ErrCodeRateLimited, e.Status, e.RetryAfter, e.Message)
	}

	return fmt.Sprintf("[%d] rate limited (HTTP %d): %s", ErrCodeRateLimited, e.Status, e.Message)
}

// IsRateLimitError checks if an error is a RateLimitError.
// It uses errors.As to check the error chain.
func IsRateLimitError(err error) bool {
	var rateLimitErr *RateLimitError

	return errors.As(err, &rateLimitErr)
}

// GetRetryAfter returns the retry hint carried by a RateLimitError in err's chain.
func GetRetryAfter(err error) (time.Duration, bool) {
	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		return 0, false
	}

	return rateLimitErr.RetryAfter, true
}
