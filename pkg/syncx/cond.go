package syncx

import (
	"context"
	"errors"
	"sync"

	"github.com/jzx17/taskexec/pkg/types"
)

// WaitError maps a context error onto the executor error surface.
// Deadline expiry becomes types.ErrTimedOut; anything else is returned as is.
func WaitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrTimedOut
	}
	return err
}

// Cond is a condition variable with context-aware waiting
type Cond struct {
	// L is held while observing or changing the condition
	L sync.Locker

	mu      sync.Mutex
	waiters []chan struct{}
}

// NewCond returns a Cond bound to l
func NewCond(l sync.Locker) *Cond {
	return &Cond{L: l}
}

// Wait atomically unlocks c.L and suspends until Signal, Broadcast or ctx ends.
// c.L is locked again before Wait returns, in every case.
func (c *Cond) Wait(ctx context.Context) error {
	ch := make(chan struct{})

	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	c.L.Unlock()
	defer c.L.Lock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
	}

	if !c.remove(ch) {
		// already signalled; treat as a normal wake-up so the signal is not lost
		return nil
	}
	return WaitError(ctx.Err())
}

// Signal wakes one waiter, if any
func (c *Cond) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.waiters) == 0 {
		return
	}
	ch := c.waiters[0]
	c.waiters[0] = nil
	c.waiters = c.waiters[1:]
	close(ch)
}

// Broadcast wakes every waiter
func (c *Cond) Broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

// Waiters returns the number of suspended waiters
func (c *Cond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *Cond) remove(ch chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
