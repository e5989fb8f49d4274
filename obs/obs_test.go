package obs

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/logiface"
)

// stubClock implements clockz.Clock with a directly settable instant, so
// Watchdog tests don't depend on clockz's fake-clock advance API.
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func TestLogger_RendersLogfmtLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelInformational)

	logger.Info("node started", "node_id", "#1", "peers", 3)

	out := buf.String()
	assert.Contains(t, out, "node started")
	assert.Contains(t, out, "node_id=#1")
	assert.Contains(t, out, "peers=3")
}

func TestLogger_ErrorLevelRendersMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelInformational)

	logger.Error("task panicked", "task_id", 7)
	assert.Contains(t, buf.String(), "task panicked")
	assert.Contains(t, buf.String(), "task_id=7")
}

func TestNoOpLogger_WritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelDisabled)
	logger.Info("should not appear")
	assert.Empty(t, buf.String())

	// Confirm NewNoOpLogger is independently silent, with no required
	// writer at all.
	noop := NewNoOpLogger()
	assert.NotPanics(t, func() { noop.Info("ignored") })
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCounter(TasksSpawnedTotal)
		m.SetGauge(PendingTimersGauge, 1)
	})
}

func TestMetrics_CounterAndGaugeRecordValues(t *testing.T) {
	m := NewMetrics()
	m.IncCounter(TasksSpawnedTotal)
	m.IncCounter(TasksSpawnedTotal)
	m.SetGauge(PendingTimersGauge, 2)

	assert.Equal(t, float64(2), m.Registry().Counter(TasksSpawnedTotal).Value())
	assert.Equal(t, float64(2), m.Registry().Gauge(PendingTimersGauge).Value())
}

func TestTracer_NilSafeSpan(t *testing.T) {
	var tr *Tracer
	assert.NotPanics(t, func() {
		_, span := tr.Start(nil, SpanExecutorPass)
		span.SetTag(TagNodeID, "x")
		span.Finish()
	})
}

func TestHooks_EmitInvokesRegisteredHandler(t *testing.T) {
	h := NewHooks()
	defer h.Close()

	received := make(chan RuntimeEvent, 1)
	h.Hook(HookRuntimeStarted, func(e RuntimeEvent) {
		received <- e
	})

	h.Emit(HookRuntimeStarted, RuntimeEvent{Message: "started"})

	select {
	case e := <-received:
		assert.Equal(t, "started", e.Message)
	case <-time.After(time.Second):
		t.Fatal("hook handler was not invoked")
	}
}

func TestHooks_NilSafe(t *testing.T) {
	var h *Hooks
	assert.NotPanics(t, func() {
		h.Hook(HookRuntimeStarted, func(RuntimeEvent) {})
		h.Emit(HookRuntimeStarted, RuntimeEvent{})
		h.Close()
	})
}

func TestWatchdog_WarnsOnceBudgetExceeded(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &stubClock{now: epoch}
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelInformational)

	wd := NewWatchdog(clock, 10*time.Millisecond, logger)
	tick := wd.Start()

	clock.now = epoch.Add(5 * time.Millisecond)
	tick()
	assert.Empty(t, buf.String())

	clock.now = epoch.Add(15 * time.Millisecond)
	tick()
	assert.Contains(t, buf.String(), "exceeded wall-clock budget")

	before := buf.Len()
	clock.now = epoch.Add(25 * time.Millisecond)
	tick()
	assert.Equal(t, before, buf.Len(), "warns only once per Start")
}

func TestWatchdog_NilSafe(t *testing.T) {
	var wd *Watchdog
	assert.NotPanics(t, func() {
		tick := wd.Start()
		tick()
	})
}

func TestEvent_AddErrorRendersErrField(t *testing.T) {
	e := &Event{level: logiface.LevelErr}
	e.AddMessage("boom")
	e.AddError(errors.New("kaboom"))
	assert.Contains(t, e.render(), "err=kaboom")
}
