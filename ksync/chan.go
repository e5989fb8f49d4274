package ksync

import (
	"sync"

	"github.com/joeycumines/go-simkernel/kernel"
)

// Chan is a multi-producer, single-consumer batched queue. Recv never
// resolves to an empty batch: it suspends until at least one value has
// been sent, then hands back everything accumulated since the last Recv,
// mirroring the original mpsc channel's swap-the-whole-buffer semantics.
type Chan[T any] struct {
	mu    sync.Mutex
	buf   []T
	waker *kernel.Waker
}

// NewChan constructs an empty Chan.
func NewChan[T any]() *Chan[T] {
	return &Chan[T]{}
}

// Send appends v to the pending batch and wakes a suspended receiver, if
// one is registered.
func (c *Chan[T]) Send(v T) {
	c.mu.Lock()
	c.buf = append(c.buf, v)
	w := c.waker
	c.waker = nil
	c.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// Recv suspends until at least one value is pending, then returns the
// whole accumulated batch.
func (c *Chan[T]) Recv(ctx *kernel.TaskContext) []T {
	return kernel.Await(ctx, func(w *kernel.Waker) ([]T, bool) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.buf) == 0 {
			c.waker = w
			return nil, false
		}
		batch := c.buf
		c.buf = nil
		return batch, true
	})
}
