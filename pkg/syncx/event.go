package syncx

import (
	"context"
	"sync"
)

// Event is a one-shot latch
type Event struct {
	once sync.Once
	ch   chan struct{}
}

// NewEvent creates an unset event
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Set marks the event and wakes all waiters. Calling Set again is a no-op.
func (e *Event) Set() {
	e.once.Do(func() { close(e.ch) })
}

// IsSet reports whether Set has been called
func (e *Event) IsSet() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the event is set
func (e *Event) Done() <-chan struct{} {
	return e.ch
}

// Wait blocks until the event is set or ctx ends
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		// prefer the event if both are ready
		if e.IsSet() {
			return nil
		}
		return WaitError(ctx.Err())
	}
}
