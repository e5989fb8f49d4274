package ksync

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-simkernel/kernel"
	"github.com/joeycumines/go-simkernel/vtime"
)

type condWaiter struct {
	woken *atomic.Bool
	waker *kernel.Waker
}

// Condvar is an async condition variable, used together with a Mutex's
// Guard. Wait and WaitWithTimeout are free functions rather than methods
// because Go methods cannot introduce their own type parameters, and the
// guarded value's type T must come from the caller's Guard[T].
type Condvar struct {
	mu      sync.Mutex
	waiters []condWaiter
}

// NewCondvar constructs an empty Condvar.
func NewCondvar() *Condvar {
	return &Condvar{}
}

func (c *Condvar) removeLocked(woken *atomic.Bool) {
	for i, e := range c.waiters {
		if e.woken == woken {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// Wait atomically releases guard's lock and suspends the calling task
// until notified, then re-acquires the lock and returns a fresh Guard.
func Wait[T any](ctx *kernel.TaskContext, c *Condvar, guard *Guard[T]) *Guard[T] {
	m := guard.mu
	guard.Unlock()

	woken := &atomic.Bool{}
	registered := false

	kernel.Await(ctx, func(w *kernel.Waker) (struct{}, bool) {
		if woken.Load() {
			return struct{}{}, true
		}
		if !registered {
			registered = true
			c.mu.Lock()
			c.waiters = append(c.waiters, condWaiter{woken: woken, waker: w})
			c.mu.Unlock()
		}
		return struct{}{}, false
	})

	return m.Lock(ctx)
}

// WaitWithTimeout is Wait raced against a sleep of d. On timeout it
// withdraws the waiter registration (if the notification race didn't
// already fire), re-acquires the lock, and returns ok=false. Panics with
// ErrInvalidTimeout if d is zero.
func WaitWithTimeout[T any](ctx *kernel.TaskContext, c *Condvar, guard *Guard[T], timer *kernel.Timer, d vtime.Duration) (g *Guard[T], ok bool) {
	if d.IsZero() {
		panic(ErrInvalidTimeout)
	}

	m := guard.mu
	guard.Unlock()

	woken := &atomic.Bool{}
	registered := false
	sleepPoll := timer.SleepFor(d)
	timedOut := false

	kernel.Await(ctx, func(w *kernel.Waker) (struct{}, bool) {
		if woken.Load() {
			return struct{}{}, true
		}
		if !registered {
			registered = true
			c.mu.Lock()
			c.waiters = append(c.waiters, condWaiter{woken: woken, waker: w})
			c.mu.Unlock()
		}
		if _, done := sleepPoll(w); done {
			timedOut = true
			return struct{}{}, true
		}
		return struct{}{}, false
	})

	if timedOut && !woken.Load() {
		c.mu.Lock()
		c.removeLocked(woken)
		c.mu.Unlock()
		return m.Lock(ctx), false
	}
	return m.Lock(ctx), true
}

// NotifyOne wakes the first not-yet-woken waiter, if any, leaving the
// rest suspended.
func (c *Condvar) NotifyOne() {
	c.mu.Lock()
	old := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	var toWake *kernel.Waker
	cut := len(old)
	for i, e := range old {
		if !e.woken.Load() {
			e.woken.Store(true)
			toWake = e.waker
			cut = i + 1
			break
		}
	}

	c.mu.Lock()
	c.waiters = append(c.waiters, old[cut:]...)
	c.mu.Unlock()

	if toWake != nil {
		toWake.Wake()
	}
}

// NotifyAll wakes every not-yet-woken waiter.
func (c *Condvar) NotifyAll() {
	c.mu.Lock()
	old := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, e := range old {
		if !e.woken.Load() {
			e.woken.Store(true)
			e.waker.Wake()
		}
	}
}
