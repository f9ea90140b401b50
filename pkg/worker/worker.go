package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/taskexec/pkg/result"
	"github.com/jzx17/taskexec/pkg/retry"
	"github.com/jzx17/taskexec/pkg/syncx"
	"github.com/jzx17/taskexec/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is one pool goroutine. It repeatedly takes the head of the pool
// queue, runs it and publishes the outcome until the queue is closed and
// empty or the pool aborts.
type Worker struct {
	id      int
	state   int32 // atomic state
	pool    *Pool
	scratch *Scratch

	// statistics
	totalProcessed int64
	totalFailed    int64
	totalSkipped   int64
	lastTaskTime   int64 // Unix nanosecond timestamp
}

func newWorker(id int, pool *Pool) *Worker {
	return &Worker{
		id:      id,
		state:   int32(WorkerStateIdle),
		pool:    pool,
		scratch: newScratch(id),
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

func (w *Worker) setState(s WorkerState) {
	atomic.StoreInt32(&w.state, int32(s))
}

// run is the worker loop; it is spawned through the pool's errgroup
func (w *Worker) run() error {
	p := w.pool
	defer func() {
		w.setState(WorkerStateStopped)
		// a worker that left can never reach the barrier again
		if p.barrier != nil {
			p.barrier.Break()
		}
		p.logger.Debug("worker stopped", "worker", w.id)
	}()

	handled := 0
	for {
		if p.aborted() {
			return nil
		}

		task, err := p.queue.Dequeue(context.Background())
		if errors.Is(err, types.ErrQueueClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("worker %d dequeue: %w", w.id, err)
		}

		if !w.process(task) {
			continue
		}
		handled++

		if p.barrier != nil && handled%p.config.BatchSize == 0 {
			w.rendezvous(handled / p.config.BatchSize)
		}
	}
}

// rendezvous waits for every worker to finish the current batch
func (w *Worker) rendezvous(batch int) {
	p := w.pool
	arrival, err := p.barrier.Wait(p.abortCtx)
	switch {
	case err == nil:
		if arrival == 0 {
			p.logger.Debug("batch complete", "batch", batch)
		}
	case errors.Is(err, syncx.ErrBarrierBroken):
		p.logger.Debug("batch barrier broken, continuing unstaged", "worker", w.id)
	default:
		p.logger.Debug("batch barrier abandoned", "worker", w.id, "error", err)
	}
}

// process runs task and reports whether it executed. Tasks cancelled before
// admission do not consume a rate token or an in-flight permit.
func (w *Worker) process(task *Task) bool {
	p := w.pool

	if p.aborted() || p.runCtx.Err() != nil {
		p.cancelTask(task, "pool aborted")
		return false
	}
	if task.Abandoned() {
		p.cancelTask(task, "submitter context done")
		return false
	}
	if state, _ := p.registry.State(task.ID()); state == result.StateCancelled {
		w.skip(task)
		return false
	}

	release, err := p.admit()
	if err != nil {
		p.cancelTask(task, "admission interrupted")
		return false
	}
	defer release()

	// the future may still be cancelled while waiting for admission
	if err := p.registry.Start(task.ID()); err != nil {
		w.skip(task)
		return false
	}

	w.setState(WorkerStateWorking)
	defer w.setState(WorkerStateIdle)
	p.metrics.started(p.queue.Len())

	startTime := p.clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())

	value, attempts, err := w.execute(task)
	duration := p.clock.Since(startTime)
	w.scratch.tasksRun++

	failed := err != nil
	if failed {
		atomic.AddInt64(&w.totalFailed, 1)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}

	outcome := result.Outcome{
		Value:       value,
		Err:         err,
		WorkerID:    w.id,
		Attempts:    attempts,
		Duration:    duration,
		CompletedAt: p.clock.Now(),
	}
	p.complete(task, outcome)
	return true
}

// skip accounts for a task cancelled through its Future while queued
func (w *Worker) skip(task *Task) {
	atomic.AddInt64(&w.totalSkipped, 1)
	w.pool.recordCancelled(1)
	w.pool.logger.Debug("skipping cancelled task", "task", task.ID(), "worker", w.id)
}

// execute runs the task with the pool's timeout and retry settings
func (w *Worker) execute(task *Task) (any, int, error) {
	p := w.pool

	ctx, cancel := context.WithCancel(p.runCtx)
	defer cancel()
	stop := context.AfterFunc(task.ctx, cancel)
	defer stop()

	if p.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancelTimeout()
	}

	if p.retrier == nil {
		value, err := w.executeOnce(ctx, task)
		return value, 1, err
	}
	return retry.Execute(p.retrier, ctx, task.ID(), func(ctx context.Context) (any, error) {
		return w.executeOnce(ctx, task)
	})
}

// executeOnce executes a task with panic recovery support
func (w *Worker) executeOnce(ctx context.Context, task *Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			value = nil
			err = types.NewTaskError("execute", task.ID(),
				fmt.Errorf("%w: %v", types.ErrTaskPanicked, r)).
				WithContext("stack_trace", string(buf[:n])).
				WithContext("worker_id", w.id)
		}
	}()

	return task.Execute(ctx, w.scratch)
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := atomic.LoadInt64(&w.lastTaskTime); ns != 0 {
		last = time.Unix(0, ns)
	}
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		TotalSkipped:   atomic.LoadInt64(&w.totalSkipped),
		LastTaskTime:   last,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalFailed    int64
	TotalSkipped   int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// GetSuccessRate gets the success rate
func (ws WorkerStats) GetSuccessRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalProcessed) / float64(total)
}

// GetErrorRate gets the error rate
func (ws WorkerStats) GetErrorRate() float64 {
	total := ws.TotalProcessed + ws.TotalFailed
	if total == 0 {
		return 0
	}
	return float64(ws.TotalFailed) / float64(total)
}
