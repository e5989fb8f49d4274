package kernel

import (
	"container/heap"
	"sync"

	"github.com/joeycumines/go-simkernel/obs"
	"github.com/joeycumines/go-simkernel/vtime"
)

// timerEntry is one scheduled wake-up: a task's waker paired with the
// simulated time it should fire at. Grounded on the teacher's timerHeap
// (eventloop/loop.go), adapted from wall-clock time.Time to vtime.Time and
// from a per-entry callback to a Waker.
type timerEntry struct {
	wakeTime vtime.Time
	seq      uint64
	waker    *Waker
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].wakeTime != h[j].wakeTime {
		return h[i].wakeTime < h[j].wakeTime
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}

// Timer is the kernel's virtual clock: a min-heap of pending wake-ups plus
// the current simulated time. Now and Advance are the only operations
// that move time forward; SleepFor registers a suspension that resolves
// once that time is reached.
type Timer struct {
	mu  sync.Mutex
	now vtime.Time
	h   timerHeap
	seq uint64

	logger  *obs.Logger
	metrics *obs.Metrics
}

func newTimer(logger *obs.Logger, metrics *obs.Metrics) *Timer {
	return &Timer{logger: logger, metrics: metrics}
}

// Now returns the current simulated time.
func (t *Timer) Now() vtime.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// Empty reports whether any wake-up is pending.
func (t *Timer) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.h) == 0
}

// Advance moves simulated time to the earliest pending wake-up and wakes
// the task waiting on it. It panics with ErrNoPendingTimers if the heap
// is empty. If several entries share the earliest wake_time, only one is
// popped; repeated Advance calls drain the rest without moving now()
// further, matching the contract that advance() wakes exactly one task
// per call.
func (t *Timer) Advance() {
	t.mu.Lock()
	if len(t.h) == 0 {
		t.mu.Unlock()
		panic(ErrNoPendingTimers)
	}
	entry := heap.Pop(&t.h).(*timerEntry)
	t.now = entry.wakeTime
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.IncCounter(obs.TimerAdvancesTotal)
	}
	entry.waker.Wake()
}

// SleepFor returns a poll function suitable for Await that resolves once
// now() has reached the time d after the call to SleepFor. The heap entry
// for this sleep is created lazily, on the first poll that finds it still
// pending -- a sleep whose result happens to already be ready the first
// time it is polled never touches the heap at all.
func (t *Timer) SleepFor(d vtime.Duration) func(w *Waker) (struct{}, bool) {
	if d.IsZero() && t.logger != nil {
		t.logger.Warn("sleep_for called with zero delay")
	}

	wakeTime := t.Now().Add(d)
	registered := false

	return func(w *Waker) (struct{}, bool) {
		t.mu.Lock()
		defer t.mu.Unlock()

		if t.now >= wakeTime {
			return struct{}{}, true
		}
		if !registered {
			registered = true
			t.seq++
			heap.Push(&t.h, &timerEntry{wakeTime: wakeTime, seq: t.seq, waker: w})
		}
		return struct{}{}, false
	}
}
