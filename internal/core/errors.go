// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Errorf creates an error with the code of base and a formatted message.
func Errorf(base *Error, format string, args ...any) *Error {
	return &Error{
		Code:    base.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Predefined errors
var (
	// Data errors
	ErrInvalidSymbol = &Error{Code: "INVALID_SYMBOL", Message: "invalid symbol"}
	ErrNoData        = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInvalidRange  = &Error{Code: "INVALID_RANGE", Message: "invalid history range"}

	// Provider errors
	ErrProviderFailed       = &Error{Code: "PROVIDER_FAILED", Message: "provider request failed"}
	ErrProviderTimeout      = &Error{Code: "PROVIDER_TIMEOUT", Message: "provider request timeout"}
	ErrProviderUnconfigured = &Error{Code: "PROVIDER_UNCONFIGURED", Message: "provider not configured"}
	ErrAllSourcesFailed     = &Error{Code: "ALL_SOURCES_FAILED", Message: "no source returned data"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Document errors
	ErrExtractFailed = &Error{Code: "EXTRACT_FAILED", Message: "text extraction failed"}
	ErrExportFailed  = &Error{Code: "EXPORT_FAILED", Message: "chunk export failed"}
)
