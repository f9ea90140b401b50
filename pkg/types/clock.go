package types

import "time"

// Clock is the time source of pools, futures and retry waits.
// Tests substitute a mock so timeouts and delays advance deterministically.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// NewTimer starts a one-shot timer; every blocking wait with a
	// timeout is built on it
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of *time.Timer the executor relies on
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

type realClock struct{}

// NewRealClock returns a Clock backed by the time package
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{time.NewTimer(d)}
}

type realTimer struct {
	*time.Timer
}

func (t realTimer) C() <-chan time.Time {
	return t.Timer.C
}

// OrRealClock returns c, or a real clock when c is nil
func OrRealClock(c Clock) Clock {
	if c == nil {
		return NewRealClock()
	}
	return c
}
