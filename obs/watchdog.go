package obs

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Watchdog is a wall-clock safety net around Runtime.BlockOn: it has
// nothing to do with simulated time and never affects the ordering of the
// simulation, but warns when a single BlockOn call has consumed more real
// wall-clock time than budget allows, which usually means the simulation
// is spinning without making forward progress on simulated time.
type Watchdog struct {
	clock  clockz.Clock
	budget time.Duration
	logger *Logger
}

// NewWatchdog builds a Watchdog. Pass clockz.RealClock in production; a
// clockz.NewFakeClock() in tests, so the budget check is itself
// deterministic and doesn't depend on wall time.
func NewWatchdog(clock clockz.Clock, budget time.Duration, logger *Logger) *Watchdog {
	return &Watchdog{clock: clock, budget: budget, logger: logger}
}

// Start begins timing a BlockOn call. Call the returned func after each
// executor pass; it logs a warning (once) if the budget has been
// exceeded.
func (w *Watchdog) Start() func() {
	if w == nil {
		return func() {}
	}
	start := w.clock.Now()
	warned := false
	return func() {
		if warned {
			return
		}
		if w.clock.Now().Sub(start) > w.budget {
			warned = true
			if w.logger != nil {
				w.logger.Warn("block_on exceeded wall-clock budget", "budget", w.budget)
			}
		}
	}
}
