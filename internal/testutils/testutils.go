// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// DefaultTimeout bounds every blocking call made from tests
const DefaultTimeout = 5 * time.Second

// Context returns a context that expires after DefaultTimeout and is
// cancelled when the test finishes
func Context(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// ShortContext returns a context expiring after d
func ShortContext(t testing.TB, d time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

// Gate blocks task goroutines until Open is called
type Gate struct {
	ch   chan struct{}
	once sync.Once
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Open releases every current and future waiter
func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}

// Wait blocks until the gate opens or ctx ends
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recorder collects values from concurrent goroutines
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

// Add appends v
func (r *Recorder[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a copy of the recorded values
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// Len returns the number of recorded values
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// AssertEventually waits for condition to be true
func AssertEventually(t testing.TB, condition func() bool, msgAndArgs ...interface{}) bool {
	return assert.Eventually(t, condition, DefaultTimeout, 5*time.Millisecond, msgAndArgs...)
}

// AssertNever checks that condition stays false for d
func AssertNever(t testing.TB, condition func() bool, d time.Duration, msgAndArgs ...interface{}) bool {
	return assert.Never(t, condition, d, 5*time.Millisecond, msgAndArgs...)
}
