// Package types defines core enums and shared types for the executor packages
package types

import (
	"fmt"
	"strings"
)

// EnqueuePolicy selects what a bounded queue does when it is full
type EnqueuePolicy int

const (
	// EnqueueBlock waits for space
	EnqueueBlock EnqueuePolicy = iota
	// EnqueueReject fails immediately with ErrCapacityExceeded
	EnqueueReject
)

// String returns the string representation of EnqueuePolicy
func (p EnqueuePolicy) String() string {
	switch p {
	case EnqueueBlock:
		return "block"
	case EnqueueReject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseEnqueuePolicy parses "block" or "reject"
func ParseEnqueuePolicy(s string) (EnqueuePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return EnqueueBlock, nil
	case "reject":
		return EnqueueReject, nil
	default:
		return EnqueueBlock, fmt.Errorf("%w: unknown enqueue policy %q", ErrInvalidConfig, s)
	}
}

// ShutdownMode selects how a pool stops
type ShutdownMode int

const (
	// ShutdownGraceful drains queued work before stopping
	ShutdownGraceful ShutdownMode = iota
	// ShutdownImmediate cancels queued work after in-flight tasks finish
	ShutdownImmediate
)

// String returns the string representation of ShutdownMode
func (m ShutdownMode) String() string {
	switch m {
	case ShutdownGraceful:
		return "graceful"
	case ShutdownImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// ParseShutdownMode parses "graceful" or "immediate"
func ParseShutdownMode(s string) (ShutdownMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "graceful":
		return ShutdownGraceful, nil
	case "immediate":
		return ShutdownImmediate, nil
	default:
		return ShutdownGraceful, fmt.Errorf("%w: unknown shutdown mode %q", ErrInvalidConfig, s)
	}
}

// PoolState defines the lifecycle state of a worker pool
type PoolState int32

const (
	// PoolCreated pool has been created but not started
	PoolCreated PoolState = iota
	// PoolRunning pool is accepting and executing tasks
	PoolRunning
	// PoolDraining shutdown has begun; no new tasks are accepted
	PoolDraining
	// PoolStopped all workers have exited
	PoolStopped
)

// String returns the string representation of PoolState
func (ps PoolState) String() string {
	switch ps {
	case PoolCreated:
		return "Created"
	case PoolRunning:
		return "Running"
	case PoolDraining:
		return "Draining"
	case PoolStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// ErrorHandler is invoked with every task execution error
type ErrorHandler func(error) error

// WorkerPoolStats defines basic statistics for worker pools
type WorkerPoolStats struct {
	// State is the pool lifecycle state
	State PoolState

	// PoolSize is the size of the pool
	PoolSize int

	// ActiveWorkers is the number of workers currently running a task
	ActiveWorkers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// QueueCapacity is the capacity of the queue (0 means unbounded)
	QueueCapacity int

	// Submitted is the number of tasks accepted by Submit
	Submitted int64

	// Completed is the number of tasks that ran without error
	Completed int64

	// Failed is the number of tasks that ran and returned an error
	Failed int64

	// Cancelled is the number of tasks cancelled before they ran
	Cancelled int64
}

// Terminal returns the number of tasks that reached a terminal outcome
func (s WorkerPoolStats) Terminal() int64 {
	return s.Completed + s.Failed + s.Cancelled
}
