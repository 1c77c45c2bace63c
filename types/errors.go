package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents categorized error codes for comparison operations
type ErrorCode string

const (
	// Input errors
	ErrCodeUnreadableDocument   ErrorCode = "UNREADABLE_DOCUMENT"
	ErrCodeUnsupportedFormat    ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"

	// Annotation errors
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// Output errors
	ErrCodeWriteError ErrorCode = "WRITE_ERROR"
	ErrCodeIOError    ErrorCode = "IO_ERROR"
)

// Error is a structured error type for comparison operations
type Error struct {
	Code    ErrorCode              // Error category code
	Message string                 // Human-readable message
	Cause   error                  // Underlying error (if any)
	Context map[string]interface{} // Additional context (document, unit index, ...)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target Error by code
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error and returns the same error for chaining
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new Error with the given code and message
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new Error with a formatted message
func NewErrorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with an Error
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapErrorf wraps an existing error with an Error and formatted message
func WrapErrorf(code ErrorCode, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Sentinel errors for use with errors.Is()
var (
	ErrUnreadableDocument   = &Error{Code: ErrCodeUnreadableDocument}
	ErrUnsupportedFormat    = &Error{Code: ErrCodeUnsupportedFormat}
	ErrInvalidConfiguration = &Error{Code: ErrCodeInvalidConfiguration}
	ErrIndexOutOfRange      = &Error{Code: ErrCodeIndexOutOfRange}
	ErrWriteError           = &Error{Code: ErrCodeWriteError}
	ErrIOError              = &Error{Code: ErrCodeIOError}
)

// AsError finds the first Error in err's chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error chain
func GetErrorCode(err error) (ErrorCode, bool) {
	if e, ok := AsError(err); ok {
		return e.Code, true
	}
	return "", false
}

// IsInvalidConfiguration reports whether err was caused by bad parameters
func IsInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsInputError reports whether err concerns an input document that could not be used
func IsInputError(err error) bool {
	code, ok := GetErrorCode(err)
	if !ok {
		return false
	}
	switch code {
	case ErrCodeUnreadableDocument, ErrCodeUnsupportedFormat:
		return true
	}
	return false
}
