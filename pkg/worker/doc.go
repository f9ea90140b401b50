/*
Package worker provides a bounded, fixed-size worker pool with per-task futures.

# Overview

A Pool owns a FIFO queue (package queue), a result registry (package result)
and a fixed set of Workers. Submit wraps a TaskFunc into a Task, creates its
result slot, enqueues it and hands back a *result.Future. Each worker loops:
dequeue, execute, publish the outcome. Every accepted task ends in exactly one
terminal outcome: succeeded, failed, or cancelled.

# Lifecycle

	Created --Start--> Running --Shutdown--> Draining --workers joined--> Stopped

Shutdown(types.ShutdownGraceful) closes the queue and lets every queued task
run. Shutdown(types.ShutdownImmediate) lets running tasks finish and cancels
the queued ones; their futures resolve with types.ErrCancelled. Neither
waits; AwaitTermination does. Close combines the configured mode with the wait.
Cancelling the context given to Start triggers an immediate shutdown.

# Submitter contexts

The context given to SubmitWithContext bounds the wait for queue space and
then stays attached to the accepted task. When it ends, a queued task is
cancelled and a running task sees its context cancelled. Skipped tasks do
not consume a rate token, an in-flight permit or a batch position.

# Optional behaviour

PoolConfig can additionally:
  - bound concurrently running tasks below the worker count (MaxInFlight)
  - run work in staged batches, where no worker starts batch n+1 before every
    worker finished batch n (BatchSize)
  - rate limit task starts (RateLimit, RateBurst)
  - put a deadline on each task (TaskTimeout)
  - retry failed executions (Retry)
  - export Prometheus metrics (Metrics)

# Worker scratch

Every TaskFunc receives the *Scratch of the worker running it. It persists
across the tasks of that worker and is never shared, so tasks can cache
per-worker resources without locking.

# Error Handling

A task error or panic never stops a worker. Panics are recovered into a
*types.TaskError wrapping types.ErrTaskPanicked, with the stack trace in its
context. Failures are logged, counted and passed to PoolConfig.ErrorHandler.

# Usage Examples

	pool, err := worker.NewPool(&worker.PoolConfig{
		Workers:       8,
		QueueCapacity: 100,
		EnqueuePolicy: types.EnqueueBlock,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	future, err := pool.Submit(func(ctx context.Context, s *worker.Scratch) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		log.Printf("Failed to submit task: %v", err)
	}

	outcome, err := future.Get(5 * time.Second)
	if errors.Is(err, types.ErrTimedOut) {
		log.Println("still running")
	}

Delayed submission:

	delayed, _ := pool.SubmitAfter(time.Second, fn)
	if changedMind {
		delayed.Cancel()
	}
*/
package worker
