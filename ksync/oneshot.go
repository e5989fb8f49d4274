package ksync

import (
	"sync"

	"github.com/joeycumines/go-simkernel/kernel"
)

type oneshotState[T any] struct {
	mu           sync.Mutex
	val          *T
	senderClosed bool
	waker        *kernel.Waker
}

// OneshotSender is the send half of a one-shot channel. At most one value
// is ever delivered.
type OneshotSender[T any] struct {
	inner *oneshotState[T]
	sent  bool
}

// OneshotReceiver is the receive half of a one-shot channel.
type OneshotReceiver[T any] struct {
	inner *oneshotState[T]
}

// NewOneshot constructs a connected sender/receiver pair.
func NewOneshot[T any]() (*OneshotSender[T], *OneshotReceiver[T]) {
	inner := &oneshotState[T]{}
	return &OneshotSender[T]{inner: inner}, &OneshotReceiver[T]{inner: inner}
}

// Send delivers v to the receiver, waking it if it is suspended. Calling
// Send more than once is a no-op after the first call.
func (s *OneshotSender[T]) Send(v T) {
	if s.sent {
		return
	}
	s.sent = true

	s.inner.mu.Lock()
	s.inner.val = &v
	w := s.inner.waker
	s.inner.waker = nil
	s.inner.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// Close marks the sender as dropped without ever sending. A pending or
// future Recv resolves to ErrSenderDropped. A no-op once Send has been
// called.
func (s *OneshotSender[T]) Close() {
	if s.sent {
		return
	}
	s.inner.mu.Lock()
	s.inner.senderClosed = true
	w := s.inner.waker
	s.inner.waker = nil
	s.inner.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

type oneshotResult[T any] struct {
	val T
	err error
}

// Recv suspends until the sender sends a value or is closed.
func (r *OneshotReceiver[T]) Recv(ctx *kernel.TaskContext) (T, error) {
	res := kernel.Await(ctx, func(w *kernel.Waker) (oneshotResult[T], bool) {
		r.inner.mu.Lock()
		defer r.inner.mu.Unlock()

		if r.inner.val != nil {
			return oneshotResult[T]{val: *r.inner.val}, true
		}
		if r.inner.senderClosed {
			var zero T
			return oneshotResult[T]{val: zero, err: ErrSenderDropped}, true
		}
		r.inner.waker = w
		return oneshotResult[T]{}, false
	})
	return res.val, res.err
}
