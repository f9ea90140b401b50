package syncx

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBarrierBroken is returned by Wait when the barrier was broken by a
// timeout, an explicit Break, or a Reset while parties were waiting
var ErrBarrierBroken = errors.New("barrier is broken")

// generation is one trip of the barrier; done is closed when it trips or breaks
type generation struct {
	done   chan struct{}
	broken bool
}

func newGeneration() *generation {
	return &generation{done: make(chan struct{})}
}

// Barrier is a cyclic rendezvous point for a fixed number of parties
type Barrier struct {
	parties int

	mu      sync.Mutex
	arrived int
	gen     *generation
}

// NewBarrier creates a barrier for the given number of parties
func NewBarrier(parties int) (*Barrier, error) {
	if parties <= 0 {
		return nil, fmt.Errorf("barrier parties must be positive, got %d", parties)
	}
	return &Barrier{
		parties: parties,
		gen:     newGeneration(),
	}, nil
}

// Wait blocks until all parties have called Wait for the current generation.
// It returns the arrival index, from parties-1 for the first arrival down to 0
// for the last one. On ctx expiry the barrier breaks and every waiter of the
// generation is released with ErrBarrierBroken; the caller gets types.ErrTimedOut.
func (b *Barrier) Wait(ctx context.Context) (int, error) {
	b.mu.Lock()
	g := b.gen
	if g.broken {
		b.mu.Unlock()
		return -1, ErrBarrierBroken
	}

	index := b.parties - 1 - b.arrived
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.gen = newGeneration()
		close(g.done)
		b.mu.Unlock()
		return index, nil
	}
	b.mu.Unlock()

	select {
	case <-g.done:
		if g.broken {
			return -1, ErrBarrierBroken
		}
		return index, nil
	case <-ctx.Done():
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-g.done:
		// tripped or broken while we were timing out
		if g.broken {
			return -1, ErrBarrierBroken
		}
		return index, nil
	default:
	}

	b.breakLocked()
	return -1, WaitError(ctx.Err())
}

// Break puts the barrier in the broken state and releases all waiters
func (b *Barrier) Break() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.breakLocked()
}

// Reset breaks the current generation, if anybody waits on it, and starts a
// fresh one
func (b *Barrier) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.arrived > 0 {
		b.breakLocked()
	}
	b.arrived = 0
	b.gen = newGeneration()
}

// Parties returns the number of parties required to trip the barrier
func (b *Barrier) Parties() int {
	return b.parties
}

// Waiting returns the number of parties currently waiting
func (b *Barrier) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.arrived
}

// IsBroken reports whether the barrier is broken
func (b *Barrier) IsBroken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.broken
}

func (b *Barrier) breakLocked() {
	if b.gen.broken {
		return
	}
	b.gen.broken = true
	b.arrived = 0
	close(b.gen.done)
}
