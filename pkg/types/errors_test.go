package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrRejected", ErrRejected},
		{"ErrQueueClosed", ErrQueueClosed},
		{"ErrCapacityExceeded", ErrCapacityExceeded},
		{"ErrPoolClosed", ErrPoolClosed},
		{"ErrPoolNotStarted", ErrPoolNotStarted},
		{"ErrPoolAlreadyStarted", ErrPoolAlreadyStarted},
		{"ErrTimedOut", ErrTimedOut},
		{"ErrAlreadyFulfilled", ErrAlreadyFulfilled},
		{"ErrCancelled", ErrCancelled},
		{"ErrInvalidConfig", ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("expected error, got nil")
			}
			if tt.err.Error() == "" {
				t.Errorf("expected non-empty error message")
			}
		})
	}
}

func TestRejectedError(t *testing.T) {
	t.Run("matches reason and ErrRejected", func(t *testing.T) {
		err := NewRejectedError(ErrCapacityExceeded)

		if !errors.Is(err, ErrRejected) {
			t.Error("expected rejection to match ErrRejected")
		}
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Error("expected rejection to match its reason")
		}
		if errors.Is(err, ErrQueueClosed) {
			t.Error("capacity rejection must not match ErrQueueClosed")
		}

		expected := "task rejected: queue capacity exceeded"
		if err.Error() != expected {
			t.Errorf("expected message %q, got %q", expected, err.Error())
		}
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", NewRejectedError(ErrQueueClosed))

		if !IsRejected(err) {
			t.Error("expected wrapped rejection to be detected")
		}
		if !errors.Is(err, ErrQueueClosed) {
			t.Error("expected wrapped rejection to expose its reason")
		}

		var rejected *RejectedError
		if !errors.As(err, &rejected) {
			t.Fatal("expected errors.As to find RejectedError")
		}
		if rejected.Reason != ErrQueueClosed {
			t.Errorf("unexpected reason %v", rejected.Reason)
		}
	})
}

func TestTaskError(t *testing.T) {
	cause := errors.New("boom")
	err := NewTaskError("execute", "task-7", cause).
		WithContext("worker_id", 3).
		WithContext("attempt", 2)

	if err.TaskID != "task-7" {
		t.Errorf("expected task id 'task-7', got %q", err.TaskID)
	}
	if !errors.Is(err, cause) {
		t.Error("expected task error to unwrap to its cause")
	}
	if err.Context["worker_id"] != 3 || err.Context["attempt"] != 2 {
		t.Errorf("unexpected context %v", err.Context)
	}

	expected := "task task-7 failed in execute: boom"
	if err.Error() != expected {
		t.Errorf("expected message %q, got %q", expected, err.Error())
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		rejected  bool
		timedOut  bool
		cancelled bool
	}{
		{"nil", nil, false, false, false},
		{"rejected", NewRejectedError(ErrQueueClosed), true, false, false},
		{"timed out", fmt.Errorf("get: %w", ErrTimedOut), false, true, false},
		{"cancelled", ErrCancelled, false, false, true},
		{"plain", errors.New("other"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRejected(tt.err); got != tt.rejected {
				t.Errorf("IsRejected = %v, want %v", got, tt.rejected)
			}
			if got := IsTimedOut(tt.err); got != tt.timedOut {
				t.Errorf("IsTimedOut = %v, want %v", got, tt.timedOut)
			}
			if got := IsCancelled(tt.err); got != tt.cancelled {
				t.Errorf("IsCancelled = %v, want %v", got, tt.cancelled)
			}
		})
	}
}
