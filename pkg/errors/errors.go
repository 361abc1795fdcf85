package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the category of a failure independently of its message
type ErrorCode string

// Error codes for the expansion pipeline
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Expansion errors
	ErrUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrExtraction        ErrorCode = "EXTRACTION"
	ErrPathTraversal     ErrorCode = "PATH_TRAVERSAL"
	ErrLimitExceeded     ErrorCode = "LIMIT_EXCEEDED"
	ErrCollision         ErrorCode = "COLLISION"
	ErrFilesystem        ErrorCode = "FILESYSTEM"
	ErrCanceled          ErrorCode = "CANCELED"

	// Batch errors
	ErrPartialFailure ErrorCode = "PARTIAL_FAILURE"
)

// UnfoldError is a structured error carrying a code and free-form details
type UnfoldError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *UnfoldError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *UnfoldError) Unwrap() error {
	return e.Wrapped
}

// Is matches any UnfoldError with the same code
func (e *UnfoldError) Is(target error) bool {
	var targetErr *UnfoldError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates an UnfoldError with the given code and message
func New(code ErrorCode, message string) *UnfoldError {
	return &UnfoldError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates an UnfoldError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *UnfoldError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *UnfoldError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps err with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *UnfoldError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *UnfoldError) WithDetail(key string, value interface{}) *UnfoldError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode reports whether any error in err's chain carries code
func IsErrorCode(err error, code ErrorCode) bool {
	var unfoldErr *UnfoldError
	for err != nil {
		if !errors.As(err, &unfoldErr) {
			return false
		}
		if unfoldErr.Code == code {
			return true
		}
		err = unfoldErr.Wrapped
	}
	return false
}

// GetErrorCode returns the outermost error code, or ErrUnknown
func GetErrorCode(err error) ErrorCode {
	var unfoldErr *UnfoldError
	if errors.As(err, &unfoldErr) {
		return unfoldErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details of the outermost UnfoldError, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var unfoldErr *UnfoldError
	if errors.As(err, &unfoldErr) {
		return unfoldErr.Details
	}
	return nil
}
