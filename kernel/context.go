package kernel

import (
	"sync/atomic"

	"github.com/joeycumines/go-simkernel/vtime"
)

// Handle is a clonable reference to a runtime's executor and timer. It is
// what gets installed into the ambient process-local slot, which the free
// functions Spawn, Now and Sleep read (netsim spawns its node inbox loops
// and link transit tasks through them).
type Handle struct {
	exec  *executor
	timer *Timer
}

// Spawn schedules run to execute on the next pass of this handle's
// executor.
func (h *Handle) Spawn(run Runner) *Task { return h.exec.spawn(run) }

// Timer returns the handle's virtual timer.
func (h *Handle) Timer() *Timer { return h.timer }

// Stop drops every task currently queued on this handle's executor.
func (h *Handle) Stop() { h.exec.clear() }

var ambient atomic.Pointer[Handle]

// contextGuard is held for the lifetime of an installed ambient context
// (the whole of a BlockOn loop, which covers every pass it runs) and
// releases the slot when it goes out of scope. runPass itself installs
// no context.
type contextGuard struct{}

func installContext(h *Handle) contextGuard {
	if !ambient.CompareAndSwap(nil, h) {
		panic(ErrDoubleContextInstall)
	}
	return contextGuard{}
}

func (contextGuard) release() {
	ambient.Store(nil)
}

func activeHandle() *Handle {
	h := ambient.Load()
	if h == nil {
		panic(ErrNoActiveContext)
	}
	return h
}

// Spawn schedules run on the ambient runtime's executor. Panics with
// ErrNoActiveContext if called outside an installed context.
func Spawn(run Runner) *Task {
	return activeHandle().Spawn(run)
}

// Now returns the ambient runtime's current simulated time. Panics with
// ErrNoActiveContext if called outside an installed context.
func Now() vtime.Time {
	return activeHandle().Timer().Now()
}

// Sleep suspends the calling task until the ambient runtime's timer
// reaches now()+d. Panics with ErrNoActiveContext if called outside an
// installed context.
func Sleep(ctx *TaskContext, d vtime.Duration) {
	h := activeHandle()
	Await(ctx, h.Timer().SleepFor(d))
}
