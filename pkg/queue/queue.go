// Package queue provides the FIFO hand-off buffer between task producers and
// pool workers.
//
// A Queue is safe for any number of concurrent producers and consumers. Each item
// is delivered to exactly one consumer, in enqueue order. Capacity is optional;
// when set, a full queue either blocks the producer or rejects the item,
// depending on the configured types.EnqueuePolicy.
//
// Closing a queue rejects further enqueues with types.ErrQueueClosed, wakes every
// blocked caller, and lets consumers drain what is left. Once empty, Dequeue
// returns types.ErrQueueClosed as the termination signal.
package queue

import (
	"context"
	"sync"

	"github.com/jzx17/taskexec/pkg/syncx"
	"github.com/jzx17/taskexec/pkg/types"
)

// Option configures a Queue
type Option func(*config)

type config struct {
	capacity int
	policy   types.EnqueuePolicy
}

// WithCapacity bounds the queue to n pending items. Zero or less means unbounded.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithPolicy selects the behaviour of Enqueue on a full queue
func WithPolicy(p types.EnqueuePolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// Queue is a FIFO queue guarded by a mutex and two condition variables
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *syncx.Cond
	notFull  *syncx.Cond

	items    []T
	capacity int
	policy   types.EnqueuePolicy
	closed   bool
}

// New creates an empty queue
func New[T any](opts ...Option) *Queue[T] {
	cfg := config{policy: types.EnqueueBlock}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &Queue[T]{
		capacity: cfg.capacity,
		policy:   cfg.policy,
	}
	q.notEmpty = syncx.NewCond(&q.mu)
	q.notFull = syncx.NewCond(&q.mu)
	return q
}

// Enqueue appends item to the tail of the queue.
// It returns a *types.RejectedError when the queue is closed or, under the
// reject policy, full. Under the block policy it waits for space; if ctx
// expires first it returns types.ErrTimedOut and the queue is unchanged.
func (q *Queue[T]) Enqueue(ctx context.Context, item T) error {
	return q.enqueue(ctx, item, q.policy)
}

// TryEnqueue appends item without blocking, whatever the configured policy
func (q *Queue[T]) TryEnqueue(item T) error {
	return q.enqueue(context.Background(), item, types.EnqueueReject)
}

func (q *Queue[T]) enqueue(ctx context.Context, item T, policy types.EnqueuePolicy) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return types.NewRejectedError(types.ErrQueueClosed)
		}
		if q.capacity == 0 || len(q.items) < q.capacity {
			break
		}
		if policy == types.EnqueueReject {
			return types.NewRejectedError(types.ErrCapacityExceeded)
		}
		if err := q.notFull.Wait(ctx); err != nil {
			return err
		}
	}

	q.items = append(q.items, item)
	q.notEmpty.Signal()
	return nil
}

// Dequeue removes and returns the head of the queue, blocking while the queue
// is empty and open. After Close it keeps returning items until the queue is
// empty, then returns types.ErrQueueClosed.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			var zero T
			return zero, types.ErrQueueClosed
		}
		if err := q.notEmpty.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}

	return q.popLocked(), nil
}

// TryDequeue removes the head of the queue if there is one
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

// Drain removes and returns every pending item in FIFO order
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	q.notFull.Broadcast()
	return items
}

// Close stops the queue from accepting items and wakes all blocked callers.
// Calling Close more than once is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// IsClosed reports whether Close has been called
func (q *Queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of pending items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity, 0 when unbounded
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// Policy returns the configured enqueue policy
func (q *Queue[T]) Policy() types.EnqueuePolicy {
	return q.policy
}

func (q *Queue[T]) popLocked() T {
	var zero T
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	q.notFull.Signal()
	return item
}
