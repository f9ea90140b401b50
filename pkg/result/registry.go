package result

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jzx17/taskexec/pkg/types"
)

var (
	// ErrSlotNotFound is returned when no slot exists for a task id
	ErrSlotNotFound = errors.New("result slot not found")

	// ErrDuplicateSlot is returned when a slot is created twice for one task id
	ErrDuplicateSlot = errors.New("result slot already exists")
)

// slot holds the outcome of one task. It moves from pending to a terminal
// state exactly once; done is closed after the outcome is stored.
type slot struct {
	id      string
	mu      sync.Mutex
	state   State
	outcome Outcome
	done    chan struct{}
}

func newSlot(id string) *slot {
	return &slot{
		id:    id,
		state: StatePending,
		done:  make(chan struct{}),
	}
}

func (s *slot) getState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *slot) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePending:
		s.state = StateRunning
		return nil
	case StateCancelled:
		return types.ErrCancelled
	default:
		return types.ErrAlreadyFulfilled
	}
}

func (s *slot) complete(o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePending, StateRunning:
	case StateCancelled:
		return types.ErrCancelled
	default:
		return types.ErrAlreadyFulfilled
	}

	o.TaskID = s.id
	if o.Err != nil {
		o.State = StateFailed
	} else {
		o.State = StateSucceeded
	}
	s.publishLocked(o)
	return nil
}

// cancel moves a pending slot to cancelled. A running task cannot be cancelled.
func (s *slot) cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePending:
	case StateCancelled:
		return nil
	case StateRunning:
		return fmt.Errorf("task %s is running: %w", s.id, types.ErrAlreadyFulfilled)
	default:
		return types.ErrAlreadyFulfilled
	}

	s.publishLocked(Outcome{
		TaskID:   s.id,
		Err:      types.ErrCancelled,
		State:    StateCancelled,
		WorkerID: -1,
	})
	return nil
}

func (s *slot) publishLocked(o Outcome) {
	s.outcome = o
	s.state = o.State
	close(s.done)
}

func (s *slot) result() (Outcome, bool) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.outcome, true
	default:
		return Outcome{}, false
	}
}

// Registry maps task ids to their result slots.
//
// The registry lock only guards the map. Each slot carries its own lock, so
// fulfilling one task never contends with readers of another.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
	clock types.Clock
}

// NewRegistry creates an empty registry. A nil clock uses the real clock.
func NewRegistry(clock types.Clock) *Registry {
	return &Registry{
		slots: make(map[string]*slot),
		clock: types.OrRealClock(clock),
	}
}

// CreateSlot registers a pending slot for taskID and returns its Future
func (r *Registry) CreateSlot(taskID string) (*Future, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[taskID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSlot, taskID)
	}
	s := newSlot(taskID)
	r.slots[taskID] = s
	return newFuture(s, r.clock), nil
}

// Start marks the slot running. It returns types.ErrCancelled if the task was
// cancelled while queued, in which case the task must not run.
func (r *Registry) Start(taskID string) error {
	s, err := r.get(taskID)
	if err != nil {
		return err
	}
	return s.start()
}

// Fulfill records the outcome of taskID and wakes every waiter.
// A second fulfillment returns types.ErrAlreadyFulfilled and a fulfillment
// after cancellation returns types.ErrCancelled; neither changes the slot.
func (r *Registry) Fulfill(taskID string, outcome Outcome) error {
	s, err := r.get(taskID)
	if err != nil {
		return err
	}
	return s.complete(outcome)
}

// Cancel resolves a pending slot to StateCancelled. Cancelling an already
// cancelled slot is a no-op; cancelling a started or finished one is an error.
func (r *Registry) Cancel(taskID string) error {
	s, err := r.get(taskID)
	if err != nil {
		return err
	}
	return s.cancel()
}

// Release removes the slot from the registry. Futures already handed out keep
// working; only lookups by id stop finding it.
func (r *Registry) Release(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[taskID]; !ok {
		return false
	}
	delete(r.slots, taskID)
	return true
}

// Lookup returns a Future for an existing slot
func (r *Registry) Lookup(taskID string) (*Future, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[taskID]
	if !ok {
		return nil, false
	}
	return newFuture(s, r.clock), true
}

// State reports the current state of taskID's slot
func (r *Registry) State(taskID string) (State, bool) {
	s, err := r.get(taskID)
	if err != nil {
		return StatePending, false
	}
	return s.getState(), true
}

// Len returns the number of registered slots
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Pending returns the number of slots without a terminal outcome
func (r *Registry) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.slots {
		if !s.getState().Terminal() {
			n++
		}
	}
	return n
}

func (r *Registry) get(taskID string) (*slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, taskID)
	}
	return s, nil
}
