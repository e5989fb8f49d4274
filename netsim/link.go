package netsim

import (
	"context"
	"sync"

	"github.com/joeycumines/go-simkernel/kernel"
	"github.com/joeycumines/go-simkernel/obs"
	"github.com/joeycumines/go-simkernel/vtime"
)

// GetSizeDelay converts a message size (bytes) and a bandwidth into the
// simulated transfer time:
// (size * 8 bits/byte * 1e6 us/s) / (bandwidth in Mbit/s * 1024 * 1024),
// rounded up to a whole microsecond.
func GetSizeDelay(size uint64, bandwidth Bandwidth) vtime.Duration {
	if bandwidth == 0 {
		return vtime.Duration(0)
	}
	bps := uint64(bandwidth) * 1024 * 1024
	micros := (size*8*1_000_000 + bps - 1) / bps
	return vtime.FromMicros(micros)
}

// directionalQueue tracks one direction's in-flight and lifetime message
// counts, along with that direction's fixed endpoints.
type directionalQueue[D any, M Message] struct {
	source, dest *Node[D, M]
	currentCount uint64
	totalCount   uint64
}

// Link is a bidirectional, latency-and-bandwidth-modelling connection
// between two nodes. Bandwidth enforcement lives entirely on the
// destination node's inbox loop; the link itself only models latency and
// in-flight bookkeeping.
type Link[D any, M Message] struct {
	id       ObjectId
	nodeA    *Node[D, M]
	nodeB    *Node[D, M]
	latency  vtime.Duration
	callback LinkCallback[D, M]

	mu           sync.Mutex
	aToB         directionalQueue[D, M]
	bToA         directionalQueue[D, M]
	activeQueues int

	tracer  *obs.Tracer
	metrics *obs.Metrics
}

// LinkOption configures optional observability handles on a Link.
type LinkOption[D any, M Message] func(*Link[D, M])

// WithLinkMetrics attaches a metrics registry, used to count sent
// messages and gauge link activity.
func WithLinkMetrics[D any, M Message](m *obs.Metrics) LinkOption[D, M] {
	return func(l *Link[D, M]) { l.metrics = m }
}

// WithLinkTracer attaches a tracer, used to span the transit task's
// latency wait.
func WithLinkTracer[D any, M Message](t *obs.Tracer) LinkOption[D, M] {
	return func(l *Link[D, M]) { l.tracer = t }
}

func newLink[D any, M Message](a, b *Node[D, M], latency vtime.Duration, callback LinkCallback[D, M], opts ...LinkOption[D, M]) *Link[D, M] {
	l := &Link[D, M]{
		id:       NewObjectId(),
		nodeA:    a,
		nodeB:    b,
		latency:  latency,
		callback: callback,
		aToB:     directionalQueue[D, M]{source: a, dest: b},
		bToA:     directionalQueue[D, M]{source: b, dest: a},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Identifier returns the link's random ObjectId.
func (l *Link[D, M]) Identifier() ObjectId { return l.id }

// GetNodes returns the link's two endpoints in a stable order (by
// identifier), so callers can compare links without caring which side a
// given node connected from.
func (l *Link[D, M]) GetNodes() (*Node[D, M], *Node[D, M]) {
	if l.nodeA.id == l.nodeB.id {
		panic(ErrSelfConnection)
	}
	if l.nodeA.id < l.nodeB.id {
		return l.nodeA, l.nodeB
	}
	return l.nodeB, l.nodeA
}

// IsActive reports whether any message is currently in flight in either
// direction, whether traversing latency or queued for bandwidth at the
// destination.
func (l *Link[D, M]) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeQueues > 0
}

// NumTotalMessages returns the lifetime count of messages sent over the
// link, summed across both directions.
func (l *Link[D, M]) NumTotalMessages() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aToB.totalCount + l.bToA.totalCount
}

func (l *Link[D, M]) queueFor(sourceID ObjectId) *directionalQueue[D, M] {
	switch sourceID {
	case l.nodeA.id:
		return &l.aToB
	case l.nodeB.id:
		return &l.bToA
	default:
		return nil
	}
}

// Send selects the directional queue whose source matches sourceID,
// fires MessageSent, and spawns a transit task that suspends for the
// link's latency before handing the message to the destination's inbox.
// Panics with ErrSendFromForeignNode if sourceID matches neither
// endpoint.
func (l *Link[D, M]) Send(sourceID ObjectId, msg M) {
	l.mu.Lock()
	q := l.queueFor(sourceID)
	if q == nil {
		l.mu.Unlock()
		panic(ErrSendFromForeignNode)
	}
	q.totalCount++
	q.currentCount++
	becameActive := q.currentCount == 1
	if becameActive {
		l.activeQueues++
	}
	firstActive := becameActive && l.activeQueues == 1
	dest := q.dest
	l.mu.Unlock()

	l.metrics.IncCounter(obs.MessagesSentTotal)
	l.callback.MessageSent(l, sourceID, msg)
	if firstActive {
		l.metrics.SetGauge(obs.ActiveLinksGauge, 1)
		l.callback.LinkBecameActive(l)
	}

	kernel.Spawn(func(ctx *kernel.TaskContext) {
		_, span := l.tracer.Start(context.Background(), obs.SpanLinkTransit)
		span.SetTag(obs.TagLinkID, l.id.String())
		defer span.Finish()

		if !l.latency.IsZero() {
			kernel.Sleep(ctx, l.latency)
		}

		dest.deliverMessage(sourceID, msg, func() {
			l.ackDelivery(sourceID)
		})
	})
}

// ackDelivery runs once the destination's inbox loop has finished
// applying the bandwidth delay for one message from sourceID's
// direction. It decrements the in-flight counter and, on the 1->0
// transition, fires LinkBecameInactive if that also drains activeQueues
// to zero.
func (l *Link[D, M]) ackDelivery(sourceID ObjectId) {
	l.mu.Lock()
	q := l.queueFor(sourceID)
	if q == nil {
		l.mu.Unlock()
		panic(ErrSendFromForeignNode)
	}
	q.currentCount--
	becameIdle := q.currentCount == 0
	var becameInactive bool
	if becameIdle {
		l.activeQueues--
		becameInactive = l.activeQueues == 0
	}
	l.mu.Unlock()

	if becameInactive {
		l.metrics.SetGauge(obs.ActiveLinksGauge, 0)
		l.callback.LinkBecameInactive(l)
	}
}
