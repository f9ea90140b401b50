package result

import (
	"context"
	"time"

	"github.com/jzx17/taskexec/pkg/syncx"
	"github.com/jzx17/taskexec/pkg/types"
)

// Future is a read-only handle to the outcome of one submitted task.
// It may be copied and shared between goroutines.
type Future struct {
	s     *slot
	clock types.Clock
}

func newFuture(s *slot, clock types.Clock) *Future {
	return &Future{s: s, clock: clock}
}

// ID returns the task id
func (f *Future) ID() string {
	return f.s.id
}

// State returns the current slot state
func (f *Future) State() State {
	return f.s.getState()
}

// Done returns a channel closed once the outcome is available
func (f *Future) Done() <-chan struct{} {
	return f.s.done
}

// IsDone reports whether the outcome is available
func (f *Future) IsDone() bool {
	_, ok := f.s.result()
	return ok
}

// TryGet returns the outcome without blocking
func (f *Future) TryGet() (Outcome, bool) {
	return f.s.result()
}

// Get waits for the outcome. A timeout of zero or less waits forever.
// On timeout it returns types.ErrTimedOut and the slot stays pending.
func (f *Future) Get(timeout time.Duration) (Outcome, error) {
	if o, ok := f.s.result(); ok {
		return o, nil
	}

	if timeout <= 0 {
		<-f.s.done
		o, _ := f.s.result()
		return o, nil
	}

	timer := f.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.s.done:
		o, _ := f.s.result()
		return o, nil
	case <-timer.C():
		// prefer a result that raced the timer
		if o, ok := f.s.result(); ok {
			return o, nil
		}
		return Outcome{}, types.ErrTimedOut
	}
}

// GetContext waits for the outcome until ctx is done
func (f *Future) GetContext(ctx context.Context) (Outcome, error) {
	select {
	case <-f.s.done:
		o, _ := f.s.result()
		return o, nil
	case <-ctx.Done():
		if o, ok := f.s.result(); ok {
			return o, nil
		}
		return Outcome{}, syncx.WaitError(ctx.Err())
	}
}

// Value waits for the outcome and unwraps it into the task's value and error.
// Cancelled tasks report types.ErrCancelled.
func (f *Future) Value(timeout time.Duration) (any, error) {
	o, err := f.Get(timeout)
	if err != nil {
		return nil, err
	}
	return o.Value, o.Err
}

// Cancel cancels the task if it has not started yet
func (f *Future) Cancel() error {
	return f.s.cancel()
}
