package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Transaction element errors
	ErrNoTransaction ErrorCode = "NO_TRANSACTION"
	ErrElementFailed ErrorCode = "ELEMENT_FAILED"
	ErrHeaderRead    ErrorCode = "HEADER_READ"
	ErrPackageOpen   ErrorCode = "PACKAGE_OPEN"
	ErrPayload       ErrorCode = "PAYLOAD"

	// Database errors
	ErrDBAccess ErrorCode = "DB_ACCESS"

	// Script errors
	ErrScriptFailed      ErrorCode = "SCRIPT_FAILED"
	ErrScriptUnsupported ErrorCode = "SCRIPT_UNSUPPORTED"

	// Collection plugin errors
	ErrPluginResolve ErrorCode = "PLUGIN_RESOLVE"
	ErrPluginLoad    ErrorCode = "PLUGIN_LOAD"
	ErrPluginSymbol  ErrorCode = "PLUGIN_SYMBOL"
	ErrPluginHook    ErrorCode = "PLUGIN_HOOK"
)

// RpmError represents a structured error with code and details
type RpmError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *RpmError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RpmError) Unwrap() error {
	return e.Wrapped
}

// Is matches any RpmError carrying the same code
func (e *RpmError) Is(target error) bool {
	var targetErr *RpmError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new RpmError with the given code and message
func New(code ErrorCode, message string) *RpmError {
	return &RpmError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new RpmError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *RpmError {
	return &RpmError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *RpmError {
	if err == nil {
		return nil
	}
	return &RpmError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *RpmError {
	if err == nil {
		return nil
	}
	return &RpmError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *RpmError) WithDetail(key string, value interface{}) *RpmError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var rpmErr *RpmError
	if errors.As(err, &rpmErr) {
		return rpmErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an RpmError
func GetErrorCode(err error) ErrorCode {
	var rpmErr *RpmError
	if errors.As(err, &rpmErr) {
		return rpmErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an RpmError
func GetErrorDetails(err error) map[string]interface{} {
	var rpmErr *RpmError
	if errors.As(err, &rpmErr) {
		return rpmErr.Details
	}
	return nil
}
