package ksync

import (
	"sync"

	"github.com/joeycumines/go-simkernel/kernel"
	"github.com/joeycumines/go-simkernel/vtime"
)

type waiterEntry struct {
	id    uint64
	waker *kernel.Waker
}

// Mutex is an async mutex: acquiring it suspends the calling task instead
// of blocking an OS thread. Waiters are queued in the order they first
// attempted to lock, tracked by a monotonic ticket assigned at the Lock
// call, grounded on the original's next_waiter_id scheme; Unlock wakes the
// head of that queue. The queue does not gate acquisition: whichever task
// next polls and finds the lock free takes it, queued or not.
type Mutex[T any] struct {
	mu           sync.Mutex
	locked       bool
	nextWaiterID uint64
	waiters      []waiterEntry
	data         T
}

// NewMutex constructs a Mutex guarding data.
func NewMutex[T any](data T) *Mutex[T] {
	return &Mutex[T]{data: data}
}

// Guard is the proof of exclusive access returned by Lock. Go has no
// destructors, so releasing the lock is an explicit Unlock call rather
// than a Drop implementation.
type Guard[T any] struct {
	mu *Mutex[T]
}

// Data returns a pointer to the guarded value, valid until Unlock.
func (g *Guard[T]) Data() *T { return &g.mu.data }

// Unlock releases the lock and, if anyone is waiting, wakes the waiter at
// the head of the FIFO queue.
func (g *Guard[T]) Unlock() {
	m := g.mu
	m.mu.Lock()
	m.locked = false
	var head *kernel.Waker
	if len(m.waiters) > 0 {
		head = m.waiters[0].waker
	}
	m.mu.Unlock()
	if head != nil {
		head.Wake()
	}
}

func (m *Mutex[T]) removeWaiterLocked(id uint64) {
	for i, e := range m.waiters {
		if e.id == id {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}

func (m *Mutex[T]) ensureQueuedLocked(id uint64, w *kernel.Waker) {
	for _, e := range m.waiters {
		if e.id == id {
			return
		}
	}
	m.waiters = append(m.waiters, waiterEntry{id: id, waker: w})
}

// Lock suspends the calling task until the mutex is free, then returns a
// Guard.
func (m *Mutex[T]) Lock(ctx *kernel.TaskContext) *Guard[T] {
	id := m.ticket()
	return kernel.Await(ctx, func(w *kernel.Waker) (*Guard[T], bool) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.locked {
			m.locked = true
			m.removeWaiterLocked(id)
			return &Guard[T]{mu: m}, true
		}
		m.ensureQueuedLocked(id, w)
		return nil, false
	})
}

func (m *Mutex[T]) ticket() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextWaiterID
	m.nextWaiterID++
	return id
}

// cancelWaiter withdraws a queued ticket. If the lock happened to be free
// at the moment of cancellation, the new head waiter (if any) is woken --
// this is the correctness fix this kernel applies over the original
// implementation, which left a freed lock unclaimed whenever the
// cancelling waiter had reached the head of the queue.
func (m *Mutex[T]) cancelWaiter(id uint64) {
	m.mu.Lock()
	m.removeWaiterLocked(id)
	var head *kernel.Waker
	if !m.locked && len(m.waiters) > 0 {
		head = m.waiters[0].waker
	}
	m.mu.Unlock()
	if head != nil {
		head.Wake()
	}
}

// LockWithTimeout races Lock against a sleep of d. If the sleep wins, the
// waiter ticket is withdrawn (cancelWaiter) and LockWithTimeout returns
// (nil, false) without ever having acquired the mutex. Panics with
// ErrInvalidTimeout if d is zero.
func (m *Mutex[T]) LockWithTimeout(ctx *kernel.TaskContext, timer *kernel.Timer, d vtime.Duration) (*Guard[T], bool) {
	if d.IsZero() {
		panic(ErrInvalidTimeout)
	}

	id := m.ticket()
	sleepPoll := timer.SleepFor(d)
	timedOut := false

	guard := kernel.Await(ctx, func(w *kernel.Waker) (*Guard[T], bool) {
		m.mu.Lock()
		if !m.locked {
			m.locked = true
			m.removeWaiterLocked(id)
			m.mu.Unlock()
			return &Guard[T]{mu: m}, true
		}
		m.ensureQueuedLocked(id, w)
		m.mu.Unlock()

		if _, done := sleepPoll(w); done {
			timedOut = true
			return nil, true
		}
		return nil, false
	})

	if timedOut {
		m.cancelWaiter(id)
		return nil, false
	}
	return guard, true
}
