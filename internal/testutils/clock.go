package testutils

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/taskexec/pkg/types"
)

// NewMockClock creates a quartz mock clock bound to t
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper adapts a quartz mock to types.Clock. Timers created through
// it only fire when the test advances the mock.
type ClockWrapper struct {
	*quartz.Mock
}

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// Now returns the mock time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the mock time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a mock timer
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	return mockTimer{timer: c.Mock.NewTimer(d)}
}

// mockTimer drops the tag arguments of the quartz timer methods
type mockTimer struct {
	timer *quartz.Timer
}

func (t mockTimer) C() <-chan time.Time { return t.timer.C }
func (t mockTimer) Stop() bool { return t.timer.Stop() }
func (t mockTimer) Reset(d time.Duration) bool { return t.timer.Reset(d) }

var _ types.Clock = (*ClockWrapper)(nil)
