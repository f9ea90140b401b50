// Package retry re-runs failed task executions according to a Policy.
//
// A Policy decides whether an error is worth another attempt and how long to
// wait before it. Two policies are provided:
//
//   - FixedDelayRetry waits the same delay between attempts
//   - ExponentialBackoffRetry multiplies the delay after every attempt, up to a cap
//
// Both accept a RetryCondition and optional jitter. The default condition
// retries any error except cancellation, context expiry and errors wrapped
// with Permanent.
//
// An Executor drives the attempts:
//
//	policy := retry.NewExponentialBackoffRetry(3, 50*time.Millisecond,
//		retry.WithMaxDelay(time.Second))
//	executor := retry.NewRetryExecutor(policy, retry.WithLogger(logger))
//
//	value, attempts, err := retry.Execute(executor, ctx, "task-7",
//		func(ctx context.Context) (string, error) {
//			return fetch(ctx)
//		})
//
// Waits between attempts go through types.Clock so tests can drive them with
// a mock clock. All types are safe for concurrent use.
package retry
