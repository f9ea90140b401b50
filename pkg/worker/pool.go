package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/taskexec/pkg/queue"
	"github.com/jzx17/taskexec/pkg/result"
	"github.com/jzx17/taskexec/pkg/retry"
	"github.com/jzx17/taskexec/pkg/syncx"
	"github.com/jzx17/taskexec/pkg/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var errNilTask = errors.New("task function cannot be nil")

// PoolConfig defines configuration for a worker pool
type PoolConfig struct {
	// Workers is the fixed number of worker goroutines
	Workers int

	// QueueCapacity bounds the task queue, 0 means unbounded
	QueueCapacity int

	// EnqueuePolicy selects what Submit does on a full queue
	EnqueuePolicy types.EnqueuePolicy

	// ShutdownMode is the mode used by Close
	ShutdownMode types.ShutdownMode

	// MaxInFlight bounds concurrently executing tasks below Workers, 0 disables
	MaxInFlight int

	// BatchSize makes workers rendezvous after every BatchSize tasks, 0 disables
	BatchSize int

	// RateLimit is the maximum task starts per second, 0 disables
	RateLimit float64

	// RateBurst is the limiter burst size, defaults to 1
	RateBurst int

	// TaskTimeout bounds each task's execution context, 0 disables
	TaskTimeout time.Duration

	// Retry re-runs failed executions when set
	Retry retry.RetryPolicy

	// Metrics receives Prometheus measurements when set
	Metrics *Metrics

	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ErrorHandler is called with every task failure
	ErrorHandler types.ErrorHandler
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:       4,
		QueueCapacity: 0,
		EnqueuePolicy: types.EnqueueBlock,
		ShutdownMode:  types.ShutdownGraceful,
		Clock:         types.NewRealClock(),
	}
}

// Validate checks the configuration
func (c *PoolConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", types.ErrInvalidConfig, c.Workers)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity must not be negative, got %d", types.ErrInvalidConfig, c.QueueCapacity)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("%w: max in flight must not be negative, got %d", types.ErrInvalidConfig, c.MaxInFlight)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must not be negative, got %d", types.ErrInvalidConfig, c.BatchSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative, got %v", types.ErrInvalidConfig, c.RateLimit)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("%w: task timeout must not be negative, got %v", types.ErrInvalidConfig, c.TaskTimeout)
	}
	if c.EnqueuePolicy != types.EnqueueBlock && c.EnqueuePolicy != types.EnqueueReject {
		return fmt.Errorf("%w: unknown enqueue policy %d", types.ErrInvalidConfig, c.EnqueuePolicy)
	}
	if c.ShutdownMode != types.ShutdownGraceful && c.ShutdownMode != types.ShutdownImmediate {
		return fmt.Errorf("%w: unknown shutdown mode %d", types.ErrInvalidConfig, c.ShutdownMode)
	}
	return nil
}

// Pool is a fixed-size worker pool fed by a FIFO queue. Every submitted task
// gets a result slot and exactly one terminal outcome.
type Pool struct {
	config   *PoolConfig
	queue    *queue.Queue[*Task]
	registry *result.Registry
	workers  []*Worker

	clock   types.Clock
	logger  *slog.Logger
	metrics *Metrics
	limiter *rate.Limiter
	sem     *syncx.Semaphore
	barrier *syncx.Barrier
	retrier *retry.RetryExecutor

	// state management
	state      int32 // atomic types.PoolState
	abortFlag  atomic.Bool
	nextID     atomic.Int64
	terminated *syncx.Event
	stopWatch  func() bool

	// runCtx is the parent of every task context; abortCtx ends waits on
	// immediate shutdown without touching running tasks
	runCtx      context.Context
	runCancel   context.CancelFunc
	abortCtx    context.Context
	abortCancel context.CancelFunc
	group       *errgroup.Group

	delayed map[*DelayedTask]struct{}

	// statistics
	submitted int64
	completed int64
	failed    int64
	cancelled int64

	// synchronization
	mu sync.Mutex
}

// NewPool creates a new pool. The workers are started by Start.
func NewPool(config *PoolConfig) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := *config
	cfg.Clock = types.OrRealClock(cfg.Clock)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Pool{
		config: &cfg,
		queue: queue.New[*Task](
			queue.WithCapacity(cfg.QueueCapacity),
			queue.WithPolicy(cfg.EnqueuePolicy),
		),
		registry:   result.NewRegistry(cfg.Clock),
		clock:      cfg.Clock,
		logger:     cfg.Logger.With("component", "pool"),
		metrics:    cfg.Metrics,
		state:      int32(types.PoolCreated),
		terminated: syncx.NewEvent(),
		delayed:    make(map[*DelayedTask]struct{}),
	}

	if cfg.MaxInFlight > 0 {
		sem, err := syncx.NewSemaphore(cfg.MaxInFlight)
		if err != nil {
			return nil, err
		}
		p.sem = sem
	}
	if cfg.BatchSize > 0 {
		barrier, err := syncx.NewBarrier(cfg.Workers)
		if err != nil {
			return nil, err
		}
		p.barrier = barrier
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.Retry != nil {
		p.retrier = retry.NewRetryExecutor(cfg.Retry,
			retry.WithClock(cfg.Clock),
			retry.WithLogger(p.logger),
			retry.WithOnRetry(func(string, int, error) { p.metrics.retried() }),
		)
	}

	p.workers = make([]*Worker, cfg.Workers)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	return p, nil
}

// Start spawns the workers. Cancelling ctx triggers an immediate shutdown.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.State() {
	case types.PoolRunning:
		return types.ErrPoolAlreadyStarted
	case types.PoolDraining, types.PoolStopped:
		return types.ErrPoolClosed
	}

	p.runCtx, p.runCancel = context.WithCancel(ctx)
	p.abortCtx, p.abortCancel = context.WithCancel(p.runCtx)
	p.group = &errgroup.Group{}

	for _, w := range p.workers {
		p.group.Go(w.run)
	}
	atomic.StoreInt32(&p.state, int32(types.PoolRunning))

	p.stopWatch = context.AfterFunc(ctx, func() {
		_ = p.Shutdown(types.ShutdownImmediate)
	})
	go p.reap()

	p.logger.Info("pool started",
		"workers", p.config.Workers,
		"queue_capacity", p.config.QueueCapacity,
		"enqueue_policy", p.config.EnqueuePolicy.String())
	return nil
}

// reap waits for every worker to exit and marks the pool stopped
func (p *Pool) reap() {
	err := p.group.Wait()
	if err != nil {
		p.logger.Error("worker exited with error", "error", err)
	}

	p.stopWatch()
	atomic.StoreInt32(&p.state, int32(types.PoolStopped))
	p.runCancel()
	p.metrics.queueDepth(0)

	stats := p.Stats()
	p.logger.Info("pool stopped",
		"completed", stats.Completed,
		"failed", stats.Failed,
		"cancelled", stats.Cancelled)
	p.terminated.Set()
}

// Submit queues fn and returns the Future bound to its result slot
func (p *Pool) Submit(fn TaskFunc) (*result.Future, error) {
	return p.SubmitWithContext(context.Background(), fn)
}

// SubmitWithContext queues fn.
//
// ctx serves two purposes. While Submit waits for queue space under the block
// policy, ctx bounds that wait. Once the task is accepted, ctx also governs
// the task's lifetime: if ctx ends while the task is queued, the task is
// cancelled and never runs, and if it ends while the task runs, the context
// passed to fn is cancelled. A deadline on ctx therefore applies to the task
// as well as to the enqueue. Use Submit, or a context without a deadline, for
// tasks that must outlive the submitter.
func (p *Pool) SubmitWithContext(ctx context.Context, fn TaskFunc) (*result.Future, error) {
	if fn == nil {
		return nil, errNilTask
	}

	switch p.State() {
	case types.PoolCreated:
		return nil, types.ErrPoolNotStarted
	case types.PoolDraining, types.PoolStopped:
		return nil, types.ErrPoolClosed
	}

	task := newTask(p.nextID.Add(1), ctx, fn, p.clock.Now())
	future, err := p.registry.CreateSlot(task.ID())
	if err != nil {
		// ids come from a counter, so this is a defect
		panic(fmt.Sprintf("worker pool: %v", err))
	}

	if err := p.queue.Enqueue(ctx, task); err != nil {
		p.registry.Release(task.ID())
		if errors.Is(err, types.ErrQueueClosed) {
			return nil, fmt.Errorf("%w: %w", types.ErrPoolClosed, err)
		}
		return nil, err
	}

	atomic.AddInt64(&p.submitted, 1)
	p.metrics.submitted(p.queue.Len())
	p.logger.Debug("task submitted", "task", task.ID())
	return future, nil
}

// Shutdown stops the pool from accepting tasks.
//
// ShutdownGraceful lets every queued task run. ShutdownImmediate lets running
// tasks finish but cancels the queued ones. Shutdown does not wait; use
// AwaitTermination. Calling it again is a no-op, except that an immediate
// shutdown escalates an earlier graceful one.
func (p *Pool) Shutdown(mode types.ShutdownMode) error {
	p.mu.Lock()

	switch p.State() {
	case types.PoolCreated:
		atomic.StoreInt32(&p.state, int32(types.PoolStopped))
		p.queue.Close()
		p.mu.Unlock()
		p.terminated.Set()
		return nil
	case types.PoolDraining, types.PoolStopped:
		p.mu.Unlock()
		if mode == types.ShutdownImmediate {
			p.abort()
		}
		return nil
	}

	atomic.StoreInt32(&p.state, int32(types.PoolDraining))
	delayed := p.delayed
	p.delayed = make(map[*DelayedTask]struct{})
	p.mu.Unlock()

	p.logger.Info("pool shutting down", "mode", mode.String(), "queued", p.queue.Len())

	for d := range delayed {
		d.Cancel()
	}

	if mode == types.ShutdownImmediate {
		p.abort()
		return nil
	}
	p.queue.Close()
	return nil
}

// abort cancels all queued tasks; it is safe to call more than once
func (p *Pool) abort() {
	if p.abortFlag.Swap(true) {
		return
	}
	// flag first so a worker dequeuing past Drain cancels instead of running
	if p.abortCancel != nil {
		p.abortCancel()
	}
	p.queue.Close()

	drained := p.queue.Drain()
	for _, task := range drained {
		p.cancelTask(task, "immediate shutdown")
	}
	p.metrics.queueDepth(0)
}

func (p *Pool) aborted() bool {
	return p.abortFlag.Load()
}

// AwaitTermination blocks until every worker has exited.
// A timeout of zero or less waits forever.
func (p *Pool) AwaitTermination(timeout time.Duration) error {
	if timeout <= 0 {
		<-p.terminated.Done()
		return nil
	}

	timer := p.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.terminated.Done():
		return nil
	case <-timer.C():
		if p.terminated.IsSet() {
			return nil
		}
		return types.ErrTimedOut
	}
}

// Close shuts down with the configured mode and waits for termination
func (p *Pool) Close() error {
	if err := p.Shutdown(p.config.ShutdownMode); err != nil {
		return err
	}
	return p.AwaitTermination(0)
}

// State returns the pool lifecycle state
func (p *Pool) State() types.PoolState {
	return types.PoolState(atomic.LoadInt32(&p.state))
}

// IsRunning checks if the worker pool accepts tasks
func (p *Pool) IsRunning() bool {
	return p.State() == types.PoolRunning
}

// Size returns the worker pool size
func (p *Pool) Size() int {
	return p.config.Workers
}

// Registry exposes the result registry
func (p *Pool) Registry() *result.Registry {
	return p.registry
}

// Stats gets basic worker pool statistics
func (p *Pool) Stats() types.WorkerPoolStats {
	var activeWorkers int
	for _, w := range p.workers {
		if w.State() == WorkerStateWorking {
			activeWorkers++
		}
	}

	return types.WorkerPoolStats{
		State:         p.State(),
		PoolSize:      p.config.Workers,
		ActiveWorkers: activeWorkers,
		QueueSize:     p.queue.Len(),
		QueueCapacity: p.queue.Cap(),
		Submitted:     atomic.LoadInt64(&p.submitted),
		Completed:     atomic.LoadInt64(&p.completed),
		Failed:        atomic.LoadInt64(&p.failed),
		Cancelled:     atomic.LoadInt64(&p.cancelled),
	}
}

// WorkerStats gets statistics of all Workers
func (p *Pool) WorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

// admit waits for the rate limiter and an in-flight permit
func (p *Pool) admit() (func(), error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(p.abortCtx); err != nil {
			return nil, err
		}
	}
	if p.sem == nil {
		return func() {}, nil
	}
	if err := p.sem.Acquire(p.abortCtx); err != nil {
		return nil, err
	}
	return p.sem.Release, nil
}

// complete publishes the outcome of a task that ran. Counters and the error
// handler run first so they are settled once the future resolves.
func (p *Pool) complete(task *Task, outcome result.Outcome) {
	failed := outcome.Err != nil
	p.metrics.finished(outcome.Duration, failed)

	if failed {
		atomic.AddInt64(&p.failed, 1)
		p.logger.Warn("task failed",
			"task", task.ID(), "worker", outcome.WorkerID, "attempts", outcome.Attempts, "error", outcome.Err)
		if p.config.ErrorHandler != nil {
			if herr := p.config.ErrorHandler(outcome.Err); herr != nil {
				p.logger.Warn("error handler failed", "task", task.ID(), "error", herr)
			}
		}
	} else {
		atomic.AddInt64(&p.completed, 1)
		p.logger.Debug("task completed",
			"task", task.ID(), "worker", outcome.WorkerID, "duration", outcome.Duration)
	}

	if err := p.registry.Fulfill(task.ID(), outcome); err != nil {
		p.logger.Error("failed to publish outcome", "task", task.ID(), "error", err)
	}
}

// cancelTask resolves a task that will never run
func (p *Pool) cancelTask(task *Task, reason string) {
	if err := p.registry.Cancel(task.ID()); err != nil {
		p.logger.Error("failed to cancel task", "task", task.ID(), "error", err)
		return
	}
	p.recordCancelled(1)
	p.logger.Debug("task cancelled", "task", task.ID(), "reason", reason)
}

func (p *Pool) recordCancelled(n int) {
	atomic.AddInt64(&p.cancelled, int64(n))
	p.metrics.cancelled(n)
}
