// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Every fatal error returned by a stage wraps exactly
// one of these.
var (
	// Configuration errors are raised before any data is touched.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFormat marks unparseable or malformed input; the whole load fails.
	ErrFormat = errors.New("input format error")

	// ErrTransport marks a failed fetch from an upstream source.
	ErrTransport = errors.New("transport failure")

	// ErrDataUnavailable is returned when a source produced no usable rows at all.
	ErrDataUnavailable = errors.New("data unavailable")

	// Storage errors.
	ErrNotFound = errors.New("not found")
)

// StageError identifies which pipeline stage and which field failed.
type StageError struct {
	Err   error
	Stage string
	Field string
}

func (e *StageError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Field, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage and field context.
func NewStageError(stage, field string, err error) error {
	return &StageError{Stage: stage, Field: field, Err: err}
}

// FormatErrorf builds a StageError whose cause wraps ErrFormat.
func FormatErrorf(stage, field, format string, args ...any) error {
	return &StageError{
		Stage: stage,
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...)),
	}
}

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

// IsConfigError reports whether err belongs to the configuration class.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingConfig) || errors.Is(err, ErrInvalidConfig)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
