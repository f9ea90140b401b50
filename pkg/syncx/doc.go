/*
Package syncx provides the coordination primitives used by the task queue and the
worker pool.

# Components

## Cond

A condition variable bound to a sync.Locker whose Wait accepts a context.
Unlike sync.Cond, a waiter can give up when its deadline expires. A signal that
races with a timeout is never lost: the waiter reports a normal wake-up instead.

## Barrier

A cyclic rendezvous point for a fixed number of parties. Wait returns once every
party has arrived, then the barrier resets for the next generation. A timeout or
an explicit Break puts the barrier in the broken state until Reset.

## Semaphore

A counting semaphore built on golang.org/x/sync/semaphore. It bounds how many
tasks run at once independently of the worker count.

## Event

A one-shot latch. Once Set, every current and future Wait returns immediately.

# Timeouts

Every blocking call takes a context. A deadline expiry is reported as
types.ErrTimedOut, an explicit cancellation as context.Canceled. Waiting without
a deadline blocks until the condition holds.
*/
package syncx
