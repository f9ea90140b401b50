package worker

import (
	"context"
	"testing"
	"time"

	"github.com/jzx17/taskexec/internal/testutils"
	"github.com/jzx17/taskexec/pkg/result"
	"github.com/jzx17/taskexec/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SubmitAfterFiresAfterDelay(t *testing.T) {
	mock := testutils.NewMockClock(t)
	pool := startPool(t, &PoolConfig{Workers: 1, Clock: testutils.NewClockWrapper(mock)})
	ctx := testutils.Context(t)

	d, err := pool.SubmitAfter(time.Second, value("late"))
	require.NoError(t, err)

	mock.Advance(500 * time.Millisecond).MustWait(ctx)
	assert.False(t, d.Fired())
	select {
	case <-d.Done():
		t.Fatal("delayed task fired early")
	default:
	}
	assert.Equal(t, int64(0), pool.Stats().Submitted)

	mock.Advance(500 * time.Millisecond).MustWait(ctx)

	f, err := d.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, d.Fired())
	assert.False(t, d.Cancel(), "a fired task cannot be cancelled")

	o, err := f.GetContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.StateSucceeded, o.State)
	assert.Equal(t, "late", o.Value)
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	mock := testutils.NewMockClock(t)
	pool := startPool(t, &PoolConfig{Workers: 1, Clock: testutils.NewClockWrapper(mock)})
	ctx := testutils.Context(t)

	ran := make(chan struct{}, 1)
	d, err := pool.SubmitAfter(time.Second, func(context.Context, *Scratch) (any, error) {
		ran <- struct{}{}
		return nil, nil
	})
	require.NoError(t, err)

	assert.True(t, d.Cancel())
	assert.True(t, d.Cancel(), "cancel is idempotent")

	_, err = d.Wait(ctx)
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.False(t, d.Fired())

	require.NoError(t, pool.Close())
	assert.Empty(t, ran)
	assert.Equal(t, int64(0), pool.Stats().Submitted)
}

func TestPool_ShutdownCancelsDelayedTasks(t *testing.T) {
	pool := startPool(t, &PoolConfig{Workers: 1})
	ctx := testutils.Context(t)

	d, err := pool.SubmitAfter(time.Hour, value(1))
	require.NoError(t, err)

	require.NoError(t, pool.Shutdown(types.ShutdownGraceful))
	_, err = d.Wait(ctx)
	assert.ErrorIs(t, err, types.ErrCancelled)

	_, err = pool.SubmitAfter(time.Millisecond, value(2))
	assert.ErrorIs(t, err, types.ErrPoolClosed)
	_, err = pool.SubmitAfter(time.Millisecond, nil)
	assert.Error(t, err)
}
