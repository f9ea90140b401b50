package util

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jzx17/taskexec/pkg/types"
)

// maxListedErrors caps how many errors MultiError spells out
const maxListedErrors = 10

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:", len(m.Errors))
	for i, err := range m.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&sb, "\n  ... and %d more errors", len(m.Errors)-maxListedErrors)
			break
		}
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Len returns the number of collected errors
func (m *MultiError) Len() int {
	return len(m.Errors)
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a MultiError from errs, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	m := &MultiError{Errors: make([]error, 0, len(errs))}
	for _, err := range errs {
		m.Add(err)
	}
	return m
}

// CombineErrors combines multiple errors into one, or nil if all are nil
func CombineErrors(errs ...error) error {
	return NewMultiError(errs).ErrorOrNil()
}

// ValidationError represents an invalid flag or configuration value
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Is makes every ValidationError match types.ErrInvalidConfig
func (v *ValidationError) Is(target error) bool {
	return target == types.ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// FriendlyError converts executor errors to messages meant for a terminal
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, types.ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		return "Operation timed out. Increase the timeout with the --timeout flag."
	case errors.Is(err, types.ErrCancelled), errors.Is(err, context.Canceled):
		return "Operation was cancelled."
	case errors.Is(err, types.ErrCapacityExceeded):
		return "Task queue is full. Raise --queue-capacity or use --enqueue-policy=block."
	case errors.Is(err, types.ErrPoolClosed), errors.Is(err, types.ErrQueueClosed):
		return "The pool is shutting down and no longer accepts tasks."
	case errors.Is(err, types.ErrInvalidConfig):
		return "Invalid configuration. Check your config file and command-line flags: " + err.Error()
	default:
		return err.Error()
	}
}
