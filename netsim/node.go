package netsim

import (
	"context"
	"sync"

	"github.com/joeycumines/go-simkernel/kernel"
	"github.com/joeycumines/go-simkernel/ksync"
	"github.com/joeycumines/go-simkernel/obs"
	"github.com/joeycumines/go-simkernel/vtime"
)

// inboxEntry is one queued delivery: the message, its sender, and the
// ack closure the link's transit task is waiting on.
type inboxEntry[M Message] struct {
	source ObjectId
	msg    M
	ack    func()
}

// Node is a simulated network endpoint. It owns an inbox loop, spawned
// on construction, that applies the destination-side bandwidth delay to
// every arriving message before handing it to the callback. D is
// arbitrary user state attached to the node; it has no required shape.
type Node[D any, M Message] struct {
	id        ObjectId
	bandwidth Bandwidth
	data      D
	callback  NodeCallback[D, M]
	inbox     *ksync.Chan[inboxEntry[M]]

	mu    sync.Mutex
	peers map[ObjectId]*Link[D, M]

	logger  *obs.Logger
	metrics *obs.Metrics
	tracer  *obs.Tracer
}

// NodeOption configures optional observability handles on a Node.
type NodeOption[D any, M Message] func(*Node[D, M])

// WithNodeLogger attaches a logger, used for the peer-not-found and
// empty-broadcast warnings.
func WithNodeLogger[D any, M Message](l *obs.Logger) NodeOption[D, M] {
	return func(n *Node[D, M]) { n.logger = l }
}

// WithNodeMetrics attaches a metrics registry.
func WithNodeMetrics[D any, M Message](m *obs.Metrics) NodeOption[D, M] {
	return func(n *Node[D, M]) { n.metrics = m }
}

// WithNodeTracer attaches a tracer, used to span the inbox loop's
// bandwidth-delay wait.
func WithNodeTracer[D any, M Message](t *obs.Tracer) NodeOption[D, M] {
	return func(n *Node[D, M]) { n.tracer = t }
}

// NewNode constructs a Node, fires NodeStarted synchronously, then spawns
// its inbox loop on the ambient runtime. Must be called from within an
// active context (directly inside block_on, or from a spawned task),
// mirroring the free-function spawn/sleep/now contract the rest of the
// kernel relies on.
//
// With no options, metrics and tracing are nil -- genuine no-ops via
// obs's nil-receiver methods, not a live registry nobody reads -- the
// same "no required ambient dependency" contract kernel.New offers.
func NewNode[D any, M Message](bandwidth Bandwidth, data D, callback NodeCallback[D, M], opts ...NodeOption[D, M]) *Node[D, M] {
	n := &Node[D, M]{
		id:        NewObjectId(),
		bandwidth: bandwidth,
		data:      data,
		callback:  callback,
		inbox:     ksync.NewChan[inboxEntry[M]](),
		peers:     make(map[ObjectId]*Link[D, M]),
		logger:    obs.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}

	callback.NodeStarted(n)

	kernel.Spawn(func(ctx *kernel.TaskContext) {
		n.inboxLoop(ctx)
	})

	return n
}

// inboxLoop applies the destination-side bandwidth delay to each arriving
// message, in arrival order, before acking it (which is what lets the
// originating link decrement its in-flight counter) and dispatching the
// callback on its own task so a slow handler can't stall later deliveries.
func (n *Node[D, M]) inboxLoop(ctx *kernel.TaskContext) {
	for {
		batch := n.inbox.Recv(ctx)
		for _, entry := range batch {
			delay := GetSizeDelay(entry.msg.GetSize(), n.bandwidth)

			_, span := n.tracer.Start(context.Background(), obs.SpanNodeInbox)
			span.SetTag(obs.TagNodeID, n.id.String())

			if !delay.IsZero() {
				kernel.Sleep(ctx, delay)
			}
			span.Finish()

			n.metrics.IncCounter(obs.MessagesDeliveredTotal)
			entry.ack()

			source, msg := entry.source, entry.msg
			kernel.Spawn(func(ctx *kernel.TaskContext) {
				n.callback.HandleMessage(ctx, n, source, msg)
			})
		}
	}
}

// Identifier returns the node's random ObjectId.
func (n *Node[D, M]) Identifier() ObjectId { return n.id }

// GetData returns a pointer to the node's attached user state.
func (n *Node[D, M]) GetData() *D { return &n.data }

func (n *Node[D, M]) linkTo(id ObjectId) *Link[D, M] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peers[id]
}

// SendTo looks up the link to peer and sends msg over it, returning true.
// If no link to peer exists, it logs a warning and returns false.
func (n *Node[D, M]) SendTo(peer ObjectId, msg M) bool {
	link := n.linkTo(peer)
	if link == nil {
		n.logger.Warn("send_to: no link to peer", "node", n.id.String(), "peer", peer.String())
		return false
	}
	link.Send(n.id, msg)
	return true
}

// Broadcast sends msg to every peer except the optionally excluded one.
// A broadcast with no eligible peers logs a warning and is a no-op.
func (n *Node[D, M]) Broadcast(msg M, exclude *ObjectId) {
	n.mu.Lock()
	links := make([]*Link[D, M], 0, len(n.peers))
	for id, l := range n.peers {
		if exclude != nil && id == *exclude {
			continue
		}
		links = append(links, l)
	}
	n.mu.Unlock()

	if len(links) == 0 {
		n.logger.Warn("broadcast: no eligible peers", "node", n.id.String())
		return
	}
	for _, l := range links {
		l.Send(n.id, msg)
	}
}

// Peers returns the identifiers of every currently connected peer.
func (n *Node[D, M]) Peers() []ObjectId {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ObjectId, 0, len(n.peers))
	for id := range n.peers {
		out = append(out, id)
	}
	return out
}

// NumPeers returns the size of the peer table.
func (n *Node[D, M]) NumPeers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.peers)
}

// Stop fires NodeStopped. It does not clear the peer table or halt the
// inbox loop; the loop simply stops being fed once nothing sends to it
// again.
func (n *Node[D, M]) Stop() {
	n.callback.NodeStopped(n)
}

// DisconnectAll tears down every link this node holds: it removes the
// reverse entry from each peer's table, fires PeerDisconnected on both
// sides, then clears its own table. Panics with errPeerTableInconsistent
// if a peer's table is missing the expected reverse entry.
func (n *Node[D, M]) DisconnectAll() {
	n.mu.Lock()
	links := make(map[ObjectId]*Link[D, M], len(n.peers))
	for id, l := range n.peers {
		links[id] = l
	}
	n.mu.Unlock()

	for peerID, link := range links {
		a, b := link.nodeA, link.nodeB
		peer := a
		if a.id == n.id {
			peer = b
		}
		if peer.id != peerID {
			panic(errPeerTableInconsistent)
		}

		peer.mu.Lock()
		if _, ok := peer.peers[n.id]; !ok {
			peer.mu.Unlock()
			panic(errPeerTableInconsistent)
		}
		delete(peer.peers, n.id)
		peer.mu.Unlock()

		peer.callback.PeerDisconnected(peer, n.id)
		n.callback.PeerDisconnected(n, peerID)
	}

	n.mu.Lock()
	n.peers = make(map[ObjectId]*Link[D, M])
	n.mu.Unlock()
}

// deliverMessage is called by a link's transit task once latency has
// elapsed. It enqueues onto the inbox, where the bandwidth delay is
// applied before ack is invoked.
func (n *Node[D, M]) deliverMessage(source ObjectId, msg M, ack func()) {
	n.inbox.Send(inboxEntry[M]{source: source, msg: msg, ack: ack})
}

// Connect constructs a Link between a and b and inserts it into both
// peer tables. Panics with ErrSelfConnection if a and b are the same
// node. With no options, the link's metrics and tracing are nil, the
// same no-op default NewNode uses; pass WithLinkMetrics/WithLinkTracer
// to share an instance across a whole topology.
func Connect[D any, M Message](a, b *Node[D, M], latency vtime.Duration, callback LinkCallback[D, M], opts ...LinkOption[D, M]) *Link[D, M] {
	if a.id == b.id {
		panic(ErrSelfConnection)
	}

	link := newLink(a, b, latency, callback, opts...)

	a.mu.Lock()
	a.peers[b.id] = link
	a.mu.Unlock()

	b.mu.Lock()
	b.peers[a.id] = link
	b.mu.Unlock()

	return link
}
