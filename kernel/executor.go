package kernel

import (
	"context"
	"sync"

	"github.com/joeycumines/go-simkernel/obs"
)

// executor owns the ready queue: a FIFO batch of tasks to resume on the
// current pass. Wakes that occur while a pass is draining land in the
// slice being built for the NEXT pass, which is what gives the kernel its
// "wakes during a pass are visible next pass" scheduling guarantee.
type executor struct {
	mu     sync.Mutex
	ready  []*Task
	nextID uint64

	logger  *obs.Logger
	metrics *obs.Metrics
	tracer  *obs.Tracer
}

func newExecutor(logger *obs.Logger, metrics *obs.Metrics, tracer *obs.Tracer) *executor {
	return &executor{logger: logger, metrics: metrics, tracer: tracer}
}

func (e *executor) enqueue(t *Task) {
	e.mu.Lock()
	e.ready = append(e.ready, t)
	e.mu.Unlock()
}

func (e *executor) spawn(run Runner) *Task {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.mu.Unlock()

	t := newTask(id, e)
	t.queued.Store(true)

	logger := e.logger
	go t.run(run, func(recovered any) {
		if logger != nil {
			logger.Error("task panicked", "task_id", id, "panic", recovered)
		}
	})

	e.enqueue(t)
	if e.metrics != nil {
		e.metrics.IncCounter(obs.TasksSpawnedTotal)
	}
	return t
}

// clear drops every task currently in the ready queue without resuming
// it. Used by Runtime.Stop / Handle.Stop.
func (e *executor) clear() {
	e.mu.Lock()
	e.ready = nil
	e.mu.Unlock()
}

// runPass resumes every task that was ready at the moment it was called,
// each exactly once, and returns whether it resumed anything.
func (e *executor) runPass() bool {
	e.mu.Lock()
	batch := e.ready
	e.ready = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return false
	}

	_, span := e.tracer.Start(context.Background(), obs.SpanExecutorPass)
	defer span.Finish()

	for _, t := range batch {
		t.queued.Store(false)
		if t.done.Load() {
			continue
		}
		t.resumeCh <- struct{}{}
		sig := <-t.yieldCh
		if e.metrics != nil {
			e.metrics.IncCounter(obs.TasksPolledTotal)
		}
		if sig.done {
			t.done.Store(true)
		}
	}
	return true
}
