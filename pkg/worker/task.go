package worker

import (
	"context"
	"fmt"
	"time"
)

// TaskFunc is a unit of work. It receives the execution context and the
// scratch space of the worker running it, and returns a value or an error.
type TaskFunc func(ctx context.Context, scratch *Scratch) (any, error)

// Task is a submitted TaskFunc with its identity
type Task struct {
	id          string
	fn          TaskFunc
	ctx         context.Context
	submittedAt time.Time
}

func newTask(seq int64, ctx context.Context, fn TaskFunc, now time.Time) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Task{
		id:          fmt.Sprintf("task-%d", seq),
		fn:          fn,
		ctx:         ctx,
		submittedAt: now,
	}
}

// ID returns the task ID
func (t *Task) ID() string {
	return t.id
}

// SubmittedAt returns when the task was accepted
func (t *Task) SubmittedAt() time.Time {
	return t.submittedAt
}

// Execute runs the task function
func (t *Task) Execute(ctx context.Context, scratch *Scratch) (any, error) {
	if t.fn == nil {
		return nil, fmt.Errorf("task %s has no execution function", t.id)
	}
	return t.fn(ctx, scratch)
}

// Abandoned reports whether the context given to SubmitWithContext has ended.
// A worker cancels an abandoned task instead of running it.
func (t *Task) Abandoned() bool {
	return t.ctx.Err() != nil
}
