package syncx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jzx17/taskexec/internal/testutils"
	"github.com/jzx17/taskexec/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestEvent(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.IsSet())

	err := e.Wait(testutils.ShortContext(t, 10*time.Millisecond))
	assert.ErrorIs(t, err, types.ErrTimedOut)

	ctx := testutils.Context(t)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Wait(ctx))
		}()
	}

	e.Set()
	e.Set()
	wg.Wait()

	assert.True(t, e.IsSet())
	select {
	case <-e.Done():
	default:
		t.Fatal("Done channel should be closed")
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, e.Wait(cancelled), "a set event wins over a finished context")
}
