package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jzx17/taskexec/pkg/result"
	"github.com/jzx17/taskexec/pkg/syncx"
	"github.com/jzx17/taskexec/pkg/types"
)

// DelayedTask is a submission scheduled by SubmitAfter
type DelayedTask struct {
	pool  *Pool
	fn    TaskFunc
	timer types.Timer
	stop  chan struct{}
	done  *syncx.Event

	mu        sync.Mutex
	fired     bool
	cancelled bool
	future    *result.Future
	err       error
}

// SubmitAfter submits fn once delay has elapsed on the pool clock.
// The returned DelayedTask can cancel the submission until the timer fires.
// Pending delayed submissions are cancelled when the pool shuts down.
func (p *Pool) SubmitAfter(delay time.Duration, fn TaskFunc) (*DelayedTask, error) {
	if fn == nil {
		return nil, errNilTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.State() {
	case types.PoolCreated:
		return nil, types.ErrPoolNotStarted
	case types.PoolDraining, types.PoolStopped:
		return nil, types.ErrPoolClosed
	}

	d := &DelayedTask{
		pool:  p,
		fn:    fn,
		timer: p.clock.NewTimer(delay),
		stop:  make(chan struct{}),
		done:  syncx.NewEvent(),
	}
	p.delayed[d] = struct{}{}
	go d.wait()

	p.logger.Debug("delayed task scheduled", "delay", delay)
	return d, nil
}

func (d *DelayedTask) wait() {
	defer d.done.Set()

	select {
	case <-d.stop:
		return
	case <-d.timer.C():
	}

	d.mu.Lock()
	if d.cancelled {
		d.mu.Unlock()
		return
	}
	d.fired = true
	d.mu.Unlock()

	d.pool.forgetDelayed(d)
	future, err := d.pool.Submit(d.fn)

	d.mu.Lock()
	d.future, d.err = future, err
	d.mu.Unlock()
}

// Cancel prevents the submission. It returns false if the timer already fired.
func (d *DelayedTask) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fired {
		return false
	}
	if !d.cancelled {
		d.cancelled = true
		d.timer.Stop()
		close(d.stop)
		d.pool.forgetDelayed(d)
	}
	return true
}

// Done returns a channel closed once the task was submitted or cancelled
func (d *DelayedTask) Done() <-chan struct{} {
	return d.done.Done()
}

// Fired reports whether the delay elapsed and submission was attempted
func (d *DelayedTask) Fired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}

// Wait blocks until the submission happened and returns its Future.
// A cancelled DelayedTask returns types.ErrCancelled.
func (d *DelayedTask) Wait(ctx context.Context) (*result.Future, error) {
	if err := d.done.Wait(ctx); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancelled {
		return nil, types.ErrCancelled
	}
	return d.future, d.err
}

// forgetDelayed may be called with d.mu held; p.mu is always taken after d.mu
func (p *Pool) forgetDelayed(d *DelayedTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.delayed, d)
}
