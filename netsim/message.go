package netsim

import "github.com/joeycumines/go-simkernel/kernel"

// Message is the capability set a user type must satisfy to travel over
// a Link. Size drives the destination node's bandwidth delay.
type Message interface {
	GetSize() uint64
}

// NodeCallback receives a node's lifecycle and delivery events. Embed
// BaseNodeCallback to get no-op defaults for everything except
// HandleMessage, which is the only required method.
type NodeCallback[D any, M Message] interface {
	// NodeStarted fires synchronously from within NewNode, before it
	// returns.
	NodeStarted(node *Node[D, M])
	// NodeStopped fires synchronously from within Stop.
	NodeStopped(node *Node[D, M])
	// HandleMessage is invoked from its own spawned task once a message
	// has cleared the destination's bandwidth delay; it may suspend.
	HandleMessage(ctx *kernel.TaskContext, node *Node[D, M], source ObjectId, message M)
	// PeerDisconnected fires on both ends of a link torn down by
	// DisconnectAll.
	PeerDisconnected(node *Node[D, M], peer ObjectId)
}

// BaseNodeCallback supplies no-op defaults; embed it in a NodeCallback
// implementation and override only HandleMessage (and any of the others
// that matter).
type BaseNodeCallback[D any, M Message] struct{}

func (BaseNodeCallback[D, M]) NodeStarted(*Node[D, M])                {}
func (BaseNodeCallback[D, M]) NodeStopped(*Node[D, M])                {}
func (BaseNodeCallback[D, M]) PeerDisconnected(*Node[D, M], ObjectId) {}

// LinkCallback receives a link's traffic and activity events. Embed
// BaseLinkCallback to get no-op defaults for all of them. D matches the
// node-data type of the Link's two endpoints.
type LinkCallback[D any, M Message] interface {
	// MessageSent fires synchronously from Send, before the transit task
	// is spawned.
	MessageSent(link *Link[D, M], source ObjectId, message M)
	// LinkBecameActive fires when a link transitions from carrying no
	// in-flight messages to carrying at least one.
	LinkBecameActive(link *Link[D, M])
	// LinkBecameInactive fires on the reverse transition.
	LinkBecameInactive(link *Link[D, M])
}

// BaseLinkCallback supplies no-op defaults for every LinkCallback method.
type BaseLinkCallback[D any, M Message] struct{}

func (BaseLinkCallback[D, M]) MessageSent(*Link[D, M], ObjectId, M) {}
func (BaseLinkCallback[D, M]) LinkBecameActive(*Link[D, M])         {}
func (BaseLinkCallback[D, M]) LinkBecameInactive(*Link[D, M])       {}
