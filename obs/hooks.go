package obs

import (
	"context"

	"github.com/zoobzio/hookz"
)

// Lifecycle hook keys for the kernel runtime, distinct from the
// domain-level NodeCallback/LinkCallback interfaces netsim exposes to
// simulation authors -- these are for operators instrumenting the kernel
// itself.
const (
	HookRuntimeStarted  = hookz.Key("kernel.runtime.started")
	HookRuntimeStopped  = hookz.Key("kernel.runtime.stopped")
	HookRootCompleted   = hookz.Key("kernel.root.completed")
	HookDeadlockDetected = hookz.Key("kernel.deadlock.detected")
)

// RuntimeEvent is the payload delivered to kernel lifecycle hooks.
type RuntimeEvent struct {
	Message string
}

// Hooks wraps a hookz.Hooks[RuntimeEvent]. A nil *Hooks is a valid no-op.
type Hooks struct {
	inner *hookz.Hooks[RuntimeEvent]
}

func NewHooks() *Hooks {
	return &Hooks{inner: hookz.New[RuntimeEvent]()}
}

func (h *Hooks) Hook(key hookz.Key, fn func(RuntimeEvent)) {
	if h == nil {
		return
	}
	_, _ = h.inner.Hook(key, func(_ context.Context, event RuntimeEvent) error {
		fn(event)
		return nil
	})
}

func (h *Hooks) Emit(key hookz.Key, event RuntimeEvent) {
	if h == nil {
		return
	}
	_ = h.inner.Emit(context.Background(), key, event)
}

func (h *Hooks) Close() {
	if h == nil {
		return
	}
	h.inner.Close()
}
