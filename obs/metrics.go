package obs

import "github.com/zoobzio/metricz"

// Metric keys published by the kernel and network layer. PendingTimersGauge
// is defined here but the kernel's Timer does not set it.
const (
	TasksSpawnedTotal  = metricz.Key("kernel.tasks.spawned.total")
	TasksPolledTotal   = metricz.Key("kernel.tasks.polled.total")
	TimerAdvancesTotal = metricz.Key("kernel.timer.advances.total")
	PendingTimersGauge = metricz.Key("kernel.timer.pending")

	MessagesSentTotal      = metricz.Key("netsim.messages.sent.total")
	MessagesDeliveredTotal = metricz.Key("netsim.messages.delivered.total")
	ActiveLinksGauge       = metricz.Key("netsim.links.active")
)

// Metrics wraps a metricz.Registry. A nil *Metrics is valid and a no-op,
// so kernel/netsim components can embed one without requiring callers to
// configure observability up front.
type Metrics struct {
	registry *metricz.Registry
}

// NewMetrics returns a Metrics backed by a fresh metricz.Registry.
func NewMetrics() *Metrics {
	return &Metrics{registry: metricz.New()}
}

// Registry exposes the underlying metricz.Registry for callers that want
// to scrape it directly.
func (m *Metrics) Registry() *metricz.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncCounter(key metricz.Key) {
	if m == nil {
		return
	}
	m.registry.Counter(key).Inc()
}

func (m *Metrics) SetGauge(key metricz.Key, val float64) {
	if m == nil {
		return
	}
	m.registry.Gauge(key).Set(val)
}
