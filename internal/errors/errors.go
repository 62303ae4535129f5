// Package errors carries categorized storage errors from the session store
// backends to the console.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is a category of failure. It is itself an error so callers can
// test a chain with errors.Is(err, ErrCodeNotFound).
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "not_found"
	ErrCodeConflict    ErrorCode = "conflict"
	ErrCodeValidation  ErrorCode = "validation"
	ErrCodeUnavailable ErrorCode = "unavailable"
	ErrCodeInternal    ErrorCode = "internal"
	ErrCodeTimeout     ErrorCode = "timeout"
	ErrCodeCanceled    ErrorCode = "canceled"
)

// statusClientClosedRequest is the non-standard status for canceled requests.
const statusClientClosedRequest = 499

func (c ErrorCode) Error() string { return string(c) }

// HTTPStatus maps a code to the status the console answers with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a categorized error with a user-safe message.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input or column, when known.
	Field string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches the error's own code, so errors.Is(err, ErrCodeTimeout) works
// through any amount of wrapping.
func (e *AppError) Is(target error) bool {
	code, ok := target.(ErrorCode)
	return ok && code == e.Code
}

// Validation returns a validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Wrap categorizes err. It returns nil for a nil err.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsValidation reports whether err carries ErrCodeValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrCodeValidation) }

// GetCode returns the outermost AppError's code, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the outermost AppError's field, or "".
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
