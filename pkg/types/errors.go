package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrRejected is matched by every enqueue rejection, whatever the reason
	ErrRejected = errors.New("task rejected")

	// ErrQueueClosed indicates the queue no longer accepts or yields items
	ErrQueueClosed = errors.New("queue is closed")

	// ErrCapacityExceeded indicates a bounded queue is full under the reject policy
	ErrCapacityExceeded = errors.New("queue capacity exceeded")

	// ErrPoolClosed indicates shutdown has been initiated
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolNotStarted indicates the pool has not been started yet
	ErrPoolNotStarted = errors.New("pool is not started")

	// ErrPoolAlreadyStarted indicates Start was called twice
	ErrPoolAlreadyStarted = errors.New("pool is already running")

	// ErrTimedOut indicates a caller-supplied deadline expired
	ErrTimedOut = errors.New("operation timed out")

	// ErrAlreadyFulfilled indicates a result slot was fulfilled twice
	ErrAlreadyFulfilled = errors.New("result already fulfilled")

	// ErrCancelled indicates the task was cancelled before it ran
	ErrCancelled = errors.New("task cancelled")

	// ErrTaskPanicked is the cause of a TaskError recovered from a panicking task
	ErrTaskPanicked = errors.New("task panicked")

	// ErrInvalidConfig indicates a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RejectedError is returned when an item cannot be enqueued.
// It matches ErrRejected and unwraps to the concrete reason.
type RejectedError struct {
	Reason error
}

// NewRejectedError wraps reason as a rejection
func NewRejectedError(reason error) *RejectedError {
	return &RejectedError{Reason: reason}
}

// Error implements the error interface
func (e *RejectedError) Error() string {
	return fmt.Sprintf("task rejected: %v", e.Reason)
}

// Unwrap returns the rejection reason
func (e *RejectedError) Unwrap() error {
	return e.Reason
}

// Is reports whether target is ErrRejected
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// TaskError represents a failure raised while executing a task
type TaskError struct {
	// Operation is the name of the operation where the error occurred
	Operation string

	// TaskID identifies the task that failed
	TaskID string

	// Cause is the underlying error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// NewTaskError creates a new task error
func NewTaskError(operation, taskID string, cause error) *TaskError {
	return &TaskError{
		Operation: operation,
		TaskID:    taskID,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed in %s: %v", e.TaskID, e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// WithContext adds error context
func (e *TaskError) WithContext(key string, value interface{}) *TaskError {
	e.Context[key] = value
	return e
}

// IsRejected checks if an error is an enqueue rejection
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsTimedOut checks if an error is a deadline expiry
func IsTimedOut(err error) bool {
	return errors.Is(err, ErrTimedOut)
}

// IsCancelled checks if an error is a cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
