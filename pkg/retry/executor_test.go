package retry

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/taskexec/internal/testutils"
	"github.com/jzx17/taskexec/pkg/types"
)

var errTransient = errors.New("transient")

func TestRetryExecutor_Execute_Success(t *testing.T) {
	executor := NewRetryExecutor(NewFixedDelayRetry(3, 10*time.Millisecond))

	result, attempts, err := Execute(executor, context.Background(), "task-1", func(ctx context.Context) (string, error) {
		return "success", nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got %v", result)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}

	stats := executor.GetStats()
	if stats.TotalAttempts != 1 || stats.TotalSuccesses != 1 || stats.TotalRetries != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestRetryExecutor_Execute_RetrySuccess(t *testing.T) {
	var retried []int
	executor := NewRetryExecutor(NewFixedDelayRetry(3, time.Millisecond),
		WithOnRetry(func(name string, attempt int, err error) {
			retried = append(retried, attempt)
		}))

	var calls int32
	result, attempts, err := Execute(executor, context.Background(), "task-2", func(ctx context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return 0, errTransient
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("Expected 42, got %v", result)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("Expected retry hooks for attempts [1 2], got %v", retried)
	}

	stats := executor.GetStats()
	if stats.TotalAttempts != 3 || stats.TotalRetries != 2 || stats.TotalSuccesses != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestRetryExecutor_Execute_MaxAttemptsReached(t *testing.T) {
	executor := NewRetryExecutor(NewFixedDelayRetry(3, time.Millisecond))

	var calls int32
	_, attempts, err := Execute(executor, context.Background(), "task-3", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Fatalf("Expected transient error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 || attempts != 3 {
		t.Errorf("Expected 3 attempts, got calls=%d attempts=%d", calls, attempts)
	}

	var taskErr *types.TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("Expected *types.TaskError, got %T", err)
	}
	if taskErr.TaskID != "task-3" || taskErr.Context["retry_attempts"] != 3 {
		t.Errorf("Unexpected task error %+v", taskErr)
	}
	if executor.GetStats().TotalFailures != 1 {
		t.Errorf("Expected 1 failure, got %d", executor.GetStats().TotalFailures)
	}
}

func TestRetryExecutor_Execute_NonRetryableError(t *testing.T) {
	executor := NewRetryExecutor(NewFixedDelayRetry(3, time.Millisecond))
	permanent := Permanent(errors.New("bad input"))

	var calls int32
	_, attempts, err := Execute(executor, context.Background(), "task-4", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", permanent
	})

	if err != permanent {
		t.Errorf("Expected the permanent error unwrapped, got %v", err)
	}
	if attempts != 1 || atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
}

func TestRetryExecutor_Execute_ContextCancelledDuringWait(t *testing.T) {
	executor := NewRetryExecutor(NewFixedDelayRetry(5, time.Hour))
	ctx := testutils.ShortContext(t, 20*time.Millisecond)

	start := time.Now()
	_, attempts, err := Execute(executor, ctx, "task-5", func(ctx context.Context) (string, error) {
		return "", errTransient
	})

	if !errors.Is(err, types.ErrTimedOut) {
		t.Errorf("Expected ErrTimedOut, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Expected the last task error to be kept, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
	if time.Since(start) > time.Second {
		t.Error("Expected the wait to stop with the context")
	}
}

func TestRetryExecutor_Execute_CancelKeepsLastError(t *testing.T) {
	executor := NewRetryExecutor(NewFixedDelayRetry(5, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	lastErr := errors.New("upstream returned 503")

	var calls int32
	go func() {
		for atomic.LoadInt32(&calls) == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	_, attempts, err := Execute(executor, ctx, "task-7", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", lastErr
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("Expected the last task error to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "last error: upstream returned 503") {
		t.Errorf("Expected the message to name the last error, got %q", err.Error())
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
	if stats := executor.GetStats(); stats.TotalFailures != 1 {
		t.Errorf("Expected 1 failure, got %d", stats.TotalFailures)
	}
}

func TestRetryExecutor_ZeroDelay(t *testing.T) {
	mock := testutils.NewMockClock(t)
	executor := NewRetryExecutor(NewFixedDelayRetry(4, 0),
		WithClock(testutils.NewClockWrapper(mock)))

	var calls int32
	_, attempts, err := Execute(executor, context.Background(), "task-6", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errTransient
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts without touching the clock, got %d", attempts)
	}
}
