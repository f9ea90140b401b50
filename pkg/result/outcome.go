// Package result provides single-assignment result slots and the futures bound to them
package result

import (
	"time"
)

// State is the lifecycle state of a result slot
type State int32

const (
	// StatePending the task has not started
	StatePending State = iota
	// StateRunning a worker is executing the task
	StateRunning
	// StateSucceeded the task returned a value
	StateSucceeded
	// StateFailed the task returned or raised an error
	StateFailed
	// StateCancelled the task was cancelled before it ran
	StateCancelled
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Outcome is the terminal result of one task
type Outcome struct {
	// TaskID identifies the task
	TaskID string

	// Value is the value returned by the task (nil on error)
	Value any

	// Err is the task error, or types.ErrCancelled for cancelled tasks
	Err error

	// State is the terminal state
	State State

	// WorkerID is the worker that executed the task, -1 if it never ran
	WorkerID int

	// Attempts is the number of executions, including retries
	Attempts int

	// Duration is how long execution took
	Duration time.Duration

	// CompletedAt is when the outcome was recorded
	CompletedAt time.Time
}

// Succeeded reports whether the task ran without error
func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Summary aggregates a set of outcomes
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Cancelled   int
	AvgDuration time.Duration
	MaxDuration time.Duration
}

// Summarize builds a Summary over outcomes. Durations only count tasks that ran.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}

	var total time.Duration
	ran := 0
	for _, o := range outcomes {
		switch o.State {
		case StateSucceeded:
			s.Succeeded++
		case StateFailed:
			s.Failed++
		case StateCancelled:
			s.Cancelled++
			continue
		}
		ran++
		total += o.Duration
		if o.Duration > s.MaxDuration {
			s.MaxDuration = o.Duration
		}
	}

	if ran > 0 {
		s.AvgDuration = total / time.Duration(ran)
	}
	return s
}

// Errors returns the errors of failed outcomes
func Errors(outcomes []Outcome) []error {
	errs := make([]error, 0)
	for _, o := range outcomes {
		if o.State == StateFailed && o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
