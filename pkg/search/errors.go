package search

import (
	"fmt"
)

// ErrorType classifies search capability failures.
type ErrorType string

const (
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeQuota       ErrorType = "quota_exceeded"
	ErrorTypeMalformed   ErrorType = "malformed_response"
	ErrorTypeUnavailable ErrorType = "unavailable"
)

// Error is a classified search failure. MarketValidator records Type as the
// FAILED reason; the retry layer consults Retryable.
type Error struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search %s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("search %s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified search error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: errType, Message: message, Retryable: retryable, Cause: cause}
}
