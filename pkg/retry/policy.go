package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jzx17/taskexec/pkg/types"
)

// RetryPolicy defines the retry strategy interface
type RetryPolicy interface {
	// ShouldRetry reports whether attempt number attempt, which failed with err,
	// should be followed by another
	ShouldRetry(err error, attempt int) bool

	// NextDelay returns the wait before attempt+1
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of executions, the first included
	MaxAttempts() int
}

// RetryCondition is a function that determines retry conditions
type RetryCondition func(error) bool

// BaseRetryPolicy provides common retry functionality
type BaseRetryPolicy struct {
	maxAttempts    int
	retryCondition RetryCondition
	jitter         JitterFunc
}

func newBaseRetryPolicy(maxAttempts int) *BaseRetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &BaseRetryPolicy{
		maxAttempts:    maxAttempts,
		retryCondition: DefaultRetryCondition,
	}
}

// ShouldRetry determines whether to retry
func (p *BaseRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.maxAttempts {
		return false
	}
	return p.retryCondition(err)
}

// MaxAttempts returns the maximum retry attempts
func (p *BaseRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p *BaseRetryPolicy) applyJitter(delay time.Duration) time.Duration {
	if p.jitter == nil {
		return delay
	}
	return p.jitter(delay)
}

// FixedDelayRetry implements fixed delay retry strategy
type FixedDelayRetry struct {
	*BaseRetryPolicy
	delay time.Duration
}

// NewFixedDelayRetry creates a fixed delay retry policy
func NewFixedDelayRetry(maxAttempts int, delay time.Duration, opts ...Option) *FixedDelayRetry {
	p := &FixedDelayRetry{
		BaseRetryPolicy: newBaseRetryPolicy(maxAttempts),
		delay:           delay,
	}
	for _, opt := range opts {
		opt(p.BaseRetryPolicy, nil)
	}
	return p
}

// NextDelay returns the delay for the next retry
func (p *FixedDelayRetry) NextDelay(int) time.Duration {
	return p.applyJitter(p.delay)
}

// ExponentialBackoffRetry implements exponential backoff retry strategy
type ExponentialBackoffRetry struct {
	*BaseRetryPolicy
	backoff backoff
}

// NewExponentialBackoffRetry creates an exponential backoff retry policy.
// The multiplier defaults to 2 and the delay is capped at 30s.
func NewExponentialBackoffRetry(maxAttempts int, initialDelay time.Duration, opts ...Option) *ExponentialBackoffRetry {
	p := &ExponentialBackoffRetry{
		BaseRetryPolicy: newBaseRetryPolicy(maxAttempts),
		backoff: backoff{
			initial:    initialDelay,
			multiplier: 2.0,
			max:        30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p.BaseRetryPolicy, &p.backoff)
	}
	return p
}

// NextDelay returns the delay for the next retry
func (p *ExponentialBackoffRetry) NextDelay(attempt int) time.Duration {
	return p.applyJitter(p.backoff.delay(attempt))
}

// Option is a configuration option for retry policies
type Option func(*BaseRetryPolicy, *backoff)

// WithRetryCondition sets the retry condition
func WithRetryCondition(condition RetryCondition) Option {
	return func(p *BaseRetryPolicy, _ *backoff) {
		if condition != nil {
			p.retryCondition = condition
		}
	}
}

// WithJitter applies jitter to every delay
func WithJitter(jitter JitterFunc) Option {
	return func(p *BaseRetryPolicy, _ *backoff) {
		p.jitter = jitter
	}
}

// WithMultiplier sets the growth factor of exponential backoff
func WithMultiplier(multiplier float64) Option {
	return func(_ *BaseRetryPolicy, b *backoff) {
		if b != nil && multiplier >= 1 {
			b.multiplier = multiplier
		}
	}
}

// WithMaxDelay caps the exponential backoff delay
func WithMaxDelay(maxDelay time.Duration) Option {
	return func(_ *BaseRetryPolicy, b *backoff) {
		if b != nil && maxDelay > 0 {
			b.max = maxDelay
		}
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying under DefaultRetryCondition
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// DefaultRetryCondition retries every error except cancellation, context
// expiry, enqueue rejection, panics and errors marked Permanent
func DefaultRetryCondition(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if types.IsCancelled(err) || types.IsRejected(err) || errors.Is(err, types.ErrPoolClosed) {
		return false
	}
	if errors.Is(err, types.ErrTaskPanicked) {
		return false
	}
	return !IsPermanent(err)
}
