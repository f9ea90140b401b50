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

func TestNewBarrier(t *testing.T) {
	_, err := NewBarrier(0)
	assert.Error(t, err)

	b, err := NewBarrier(3)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Parties())
	assert.Equal(t, 0, b.Waiting())
	assert.False(t, b.IsBroken())
}

func TestBarrier_Rendezvous(t *testing.T) {
	b, err := NewBarrier(3)
	require.NoError(t, err)

	ctx := testutils.Context(t)
	var released atomic.Int32
	indices := &testutils.Recorder[int]{}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := b.Wait(ctx)
			assert.NoError(t, err)
			indices.Add(idx)
			released.Add(1)
		}()
	}

	testutils.AssertEventually(t, func() bool { return b.Waiting() == 2 })
	testutils.AssertNever(t, func() bool { return released.Load() > 0 }, 50*time.Millisecond,
		"no party may pass before the third arrives")

	idx, err := b.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "last arrival gets index 0")

	wg.Wait()
	assert.Equal(t, int32(2), released.Load())
	assert.ElementsMatch(t, []int{2, 1}, indices.Values())
	assert.Equal(t, 0, b.Waiting())
}

func TestBarrier_FreshInstanceIsIndependent(t *testing.T) {
	first, err := NewBarrier(3)
	require.NoError(t, err)
	second, err := NewBarrier(3)
	require.NoError(t, err)

	ctx := testutils.Context(t)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := first.Wait(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// a lone caller on another instance is not released by the first barrier
	_, err = second.Wait(testutils.ShortContext(t, 30*time.Millisecond))
	assert.ErrorIs(t, err, types.ErrTimedOut)
	assert.False(t, first.IsBroken())
}

func TestBarrier_Cyclic(t *testing.T) {
	b, err := NewBarrier(2)
	require.NoError(t, err)

	ctx := testutils.Context(t)
	for round := 0; round < 5; round++ {
		done := make(chan error, 1)
		go func() {
			_, err := b.Wait(ctx)
			done <- err
		}()
		_, err := b.Wait(ctx)
		require.NoError(t, err, "round %d", round)
		require.NoError(t, <-done, "round %d", round)
	}
}

func TestBarrier_TimeoutBreaks(t *testing.T) {
	b, err := NewBarrier(3)
	require.NoError(t, err)

	other := make(chan error, 1)
	go func() {
		_, err := b.Wait(context.Background())
		other <- err
	}()
	testutils.AssertEventually(t, func() bool { return b.Waiting() == 1 })

	_, err = b.Wait(testutils.ShortContext(t, 20*time.Millisecond))
	assert.ErrorIs(t, err, types.ErrTimedOut)
	assert.ErrorIs(t, <-other, ErrBarrierBroken)
	assert.True(t, b.IsBroken())

	_, err = b.Wait(context.Background())
	assert.ErrorIs(t, err, ErrBarrierBroken, "broken barrier fails fast")

	b.Reset()
	assert.False(t, b.IsBroken())
}

func TestBarrier_Break(t *testing.T) {
	b, err := NewBarrier(4)
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := b.Wait(context.Background())
			errs <- err
		}()
	}
	testutils.AssertEventually(t, func() bool { return b.Waiting() == 2 })

	b.Break()
	assert.ErrorIs(t, <-errs, ErrBarrierBroken)
	assert.ErrorIs(t, <-errs, ErrBarrierBroken)

	// Break is idempotent
	b.Break()
	assert.True(t, b.IsBroken())
}

func TestBarrier_ResetReleasesWaiters(t *testing.T) {
	b, err := NewBarrier(2)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := b.Wait(context.Background())
		errc <- err
	}()
	testutils.AssertEventually(t, func() bool { return b.Waiting() == 1 })

	b.Reset()
	assert.ErrorIs(t, <-errc, ErrBarrierBroken)
	assert.False(t, b.IsBroken())

	ctx := testutils.Context(t)
	go func() {
		_, err := b.Wait(ctx)
		errc <- err
	}()
	_, err = b.Wait(ctx)
	assert.NoError(t, err)
	assert.NoError(t, <-errc)
}
