package syncx

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/taskexec/internal/testutils"
	"github.com/jzx17/taskexec/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSemaphore(t *testing.T) {
	_, err := NewSemaphore(0)
	assert.Error(t, err)
	_, err = NewSemaphore(-3)
	assert.Error(t, err)

	s, err := NewSemaphore(4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, 4, s.Available())
	assert.Equal(t, 0, s.InUse())
}

func TestSemaphore_BoundsConcurrency(t *testing.T) {
	const limit = 3
	s, err := NewSemaphore(limit)
	require.NoError(t, err)

	ctx := testutils.Context(t)
	var current, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, s.Acquire(ctx)) {
				return
			}
			defer s.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			current.Add(-1)
		}()
	}

	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, limit, s.Available())
}

func TestSemaphore_TryAcquire(t *testing.T) {
	s, err := NewSemaphore(1)
	require.NoError(t, err)

	assert.True(t, s.TryAcquire())
	assert.False(t, s.TryAcquire())
	assert.Equal(t, 1, s.InUse())

	s.Release()
	assert.True(t, s.TryAcquire())
	s.Release()
}

func TestSemaphore_AcquireTimeout(t *testing.T) {
	s, err := NewSemaphore(1)
	require.NoError(t, err)
	require.True(t, s.TryAcquire())

	err = s.Acquire(testutils.ShortContext(t, 20*time.Millisecond))
	assert.ErrorIs(t, err, types.ErrTimedOut)
	assert.Equal(t, 1, s.InUse(), "failed acquire takes no permit")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Acquire(ctx), context.Canceled)
}

func TestSemaphore_OverReleasePanics(t *testing.T) {
	s, err := NewSemaphore(2)
	require.NoError(t, err)

	assert.Panics(t, func() { s.Release() })
	assert.Equal(t, 0, s.InUse())
}
