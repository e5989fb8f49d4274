package kernel

import (
	"context"

	"github.com/joeycumines/go-simkernel/obs"
)

// Option configures a Runtime at construction. Grounded on the teacher's
// functional-options pattern used throughout eventloop.
type Option func(*Runtime)

func WithLogger(logger *obs.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

func WithMetrics(metrics *obs.Metrics) Option {
	return func(r *Runtime) { r.metrics = metrics }
}

func WithTracer(tracer *obs.Tracer) Option {
	return func(r *Runtime) { r.tracer = tracer }
}

func WithHooks(hooks *obs.Hooks) Option {
	return func(r *Runtime) { r.hooks = hooks }
}

func WithWatchdog(w *obs.Watchdog) Option {
	return func(r *Runtime) { r.watchdog = w }
}

// Runtime owns an executor and a Timer, and drives them via BlockOn. It
// is the top-level entry point: construct one, install it as the ambient
// context implicitly via BlockOn, and spawn/sleep/now from inside the
// root computation.
type Runtime struct {
	exec  *executor
	timer *Timer

	logger   *obs.Logger
	metrics  *obs.Metrics
	tracer   *obs.Tracer
	hooks    *obs.Hooks
	watchdog *obs.Watchdog
}

// New constructs a Runtime. With no options, every observability hook is
// a no-op: the kernel has no required ambient dependency.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		logger: obs.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.exec = newExecutor(r.logger, r.metrics, r.tracer)
	r.timer = newTimer(r.logger, r.metrics)
	return r
}

// Timer returns the runtime's virtual timer.
func (r *Runtime) Timer() *Timer { return r.timer }

// Spawn schedules run on this runtime's executor, usable even before
// BlockOn starts (the task waits in the ready queue until the first
// pass).
func (r *Runtime) Spawn(run Runner) *Task { return r.exec.spawn(run) }

// Stop drops every queued task.
func (r *Runtime) Stop() { r.exec.clear() }

func (r *Runtime) handle() *Handle {
	return &Handle{exec: r.exec, timer: r.timer}
}

// BlockOn spawns root, then drives the executor and timer until root
// completes: run one pass; if root is done, return; otherwise advance the
// timer to the next event and continue. If a pass polls nothing and the
// timer has no pending events while root is still incomplete, the loop is
// unproductive and BlockOn panics with ErrSimulationDeadlock.
func (r *Runtime) BlockOn(root Runner) {
	h := r.handle()
	guard := installContext(h)
	defer guard.release()

	if r.hooks != nil {
		r.hooks.Emit(obs.HookRuntimeStarted, obs.RuntimeEvent{Message: "block_on started"})
		defer r.hooks.Emit(obs.HookRuntimeStopped, obs.RuntimeEvent{Message: "block_on returned"})
	}

	var stopWatch func()
	if r.watchdog != nil {
		stopWatch = r.watchdog.Start()
	}

	done := false
	r.exec.spawn(func(ctx *TaskContext) {
		root(ctx)
		done = true
	})

	for {
		ran := r.exec.runPass()
		if stopWatch != nil {
			stopWatch()
		}
		if done {
			if r.hooks != nil {
				r.hooks.Emit(obs.HookRootCompleted, obs.RuntimeEvent{Message: "root completed"})
			}
			return
		}
		if !ran && r.timer.Empty() {
			if r.hooks != nil {
				r.hooks.Emit(obs.HookDeadlockDetected, obs.RuntimeEvent{Message: "no ready work and no pending timers"})
			}
			panic(ErrSimulationDeadlock)
		}
		if !r.timer.Empty() {
			_, span := r.tracer.Start(context.Background(), obs.SpanTimerAdvance)
			r.timer.Advance()
			span.Finish()
		}
	}
}
