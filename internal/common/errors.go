// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Workflow errors.
	ErrNoFile            = errors.New("no file selected")
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrBusy              = errors.New("another request is in flight")
	ErrTornDown          = errors.New("session closed")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Messager is implemented by errors that know how to describe themselves to
// an end user.
type Messager interface {
	UserMessage() string
}

// DisplayMessage returns the text to show a user for err. UserError prefixes
// and Messager descriptions take precedence over the raw error string.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		if userErr.Err == nil {
			return userErr.UserMessage
		}
		return userErr.UserMessage + ": " + DisplayMessage(userErr.Err)
	}

	var messager Messager
	if errors.As(err, &messager) {
		return messager.UserMessage()
	}

	return err.Error()
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// Check for specific retryable errors
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Check for retryable error type
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
