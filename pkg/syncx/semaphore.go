package syncx

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore bounding concurrent access to a resource
type Semaphore struct {
	w     *semaphore.Weighted
	size  int64
	inUse atomic.Int64
}

// NewSemaphore creates a semaphore with n permits
func NewSemaphore(n int) (*Semaphore, error) {
	if n <= 0 {
		return nil, fmt.Errorf("semaphore size must be positive, got %d", n)
	}
	return &Semaphore{
		w:    semaphore.NewWeighted(int64(n)),
		size: int64(n),
	}, nil
}

// Acquire blocks until a permit is available or ctx ends
func (s *Semaphore) Acquire(ctx context.Context) error {
	if err := s.w.Acquire(ctx, 1); err != nil {
		return WaitError(err)
	}
	s.inUse.Add(1)
	return nil
}

// TryAcquire takes a permit without blocking and reports whether it succeeded
func (s *Semaphore) TryAcquire() bool {
	if !s.w.TryAcquire(1) {
		return false
	}
	s.inUse.Add(1)
	return true
}

// Release returns a permit. Releasing more than acquired panics.
func (s *Semaphore) Release() {
	if s.inUse.Add(-1) < 0 {
		s.inUse.Add(1)
		panic("syncx: Semaphore.Release called without matching Acquire")
	}
	s.w.Release(1)
}

// Size returns the total number of permits
func (s *Semaphore) Size() int {
	return int(s.size)
}

// InUse returns the number of permits currently held.
// The value may be stale in concurrent contexts.
func (s *Semaphore) InUse() int {
	return int(s.inUse.Load())
}

// Available returns the number of free permits.
// The value may be stale in concurrent contexts.
func (s *Semaphore) Available() int {
	return int(s.size - s.inUse.Load())
}
