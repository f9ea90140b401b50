package retry

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jzx17/taskexec/pkg/syncx"
	"github.com/jzx17/taskexec/pkg/types"
)

// RetryExecutor runs functions under a RetryPolicy
type RetryExecutor struct {
	policy  RetryPolicy
	clock   types.Clock
	logger  *slog.Logger
	onRetry func(name string, attempt int, err error)

	attempts  atomic.Int64
	retries   atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
}

// ExecuteFunc is the function type to retry
type ExecuteFunc[T any] func(ctx context.Context) (T, error)

// RetryStats contains retry statistics
type RetryStats struct {
	TotalAttempts  int64
	TotalRetries   int64
	TotalSuccesses int64
	TotalFailures  int64
}

// ExecutorOption is a configuration option for retry executor
type ExecutorOption func(*RetryExecutor)

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) ExecutorOption {
	return func(r *RetryExecutor) {
		r.clock = types.OrRealClock(clock)
	}
}

// WithLogger sets the logger used for retry events
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(r *RetryExecutor) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOnRetry registers a hook called before every retry
func WithOnRetry(fn func(name string, attempt int, err error)) ExecutorOption {
	return func(r *RetryExecutor) {
		r.onRetry = fn
	}
}

// NewRetryExecutor creates a retry executor
func NewRetryExecutor(policy RetryPolicy, opts ...ExecutorOption) *RetryExecutor {
	r := &RetryExecutor{
		policy: policy,
		clock:  types.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the policy in use
func (r *RetryExecutor) Policy() RetryPolicy {
	return r.policy
}

// Execute runs fn until it succeeds, the policy gives up, or ctx ends.
// It returns the last value, the number of executions and the last error.
// The final error is a *types.TaskError carrying the attempt count when more
// than one attempt was made. If ctx ends during a backoff, the error wraps
// both the context error and the last error returned by fn.
func Execute[T any](r *RetryExecutor, ctx context.Context, name string, fn ExecuteFunc[T]) (T, int, error) {
	var zero T
	attempt := 0

	for {
		attempt++
		r.attempts.Add(1)

		value, err := fn(ctx)
		if err == nil {
			r.successes.Add(1)
			if attempt > 1 {
				r.logger.Debug("retry succeeded", "task", name, "attempt", attempt)
			}
			return value, attempt, nil
		}

		if !r.policy.ShouldRetry(err, attempt) {
			r.failures.Add(1)
			return zero, attempt, r.wrapError(name, err, attempt)
		}

		delay := r.policy.NextDelay(attempt)
		r.retries.Add(1)
		r.logger.Debug("retrying task", "task", name, "attempt", attempt, "delay", delay, "error", err)
		if r.onRetry != nil {
			r.onRetry(name, attempt, err)
		}

		if waitErr := r.wait(ctx, delay); waitErr != nil {
			r.failures.Add(1)
			return zero, attempt, fmt.Errorf("%w (last error: %w)", waitErr, err)
		}
	}
}

func (r *RetryExecutor) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return syncx.WaitError(ctx.Err())
	}

	timer := r.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return syncx.WaitError(ctx.Err())
	case <-timer.C():
		return nil
	}
}

// GetStats gets retry statistics
func (r *RetryExecutor) GetStats() RetryStats {
	return RetryStats{
		TotalAttempts:  r.attempts.Load(),
		TotalRetries:   r.retries.Load(),
		TotalSuccesses: r.successes.Load(),
		TotalFailures:  r.failures.Load(),
	}
}

func (r *RetryExecutor) wrapError(name string, err error, attempts int) error {
	if attempts <= 1 {
		return err
	}
	return types.NewTaskError("retry", name, err).
		WithContext("retry_attempts", attempts).
		WithContext("max_attempts", r.policy.MaxAttempts())
}
