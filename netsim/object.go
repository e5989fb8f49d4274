// Package netsim provides the simulated network layer: nodes with
// callback-driven message handling, and bidirectional links that model
// latency and bandwidth purely in terms of simulated-time delays.
package netsim

import (
	"fmt"
	"math/rand/v2"
)

// ObjectId identifies a Node or Link. Random 64-bit values make
// collisions negligible without needing a central allocator.
type ObjectId uint64

// NewObjectId returns a fresh random identifier.
func NewObjectId() ObjectId {
	return ObjectId(rand.Uint64())
}

func (id ObjectId) String() string {
	return fmt.Sprintf("#%x", uint64(id))
}

// Bandwidth is a link or node's throughput, in Megabits per second,
// matching the original simulator's unit.
type Bandwidth uint64

// BandwidthFromMegabitsPerSecond constructs a Bandwidth directly from a
// Mbit/s figure.
func BandwidthFromMegabitsPerSecond(n uint64) Bandwidth { return Bandwidth(n) }

// BandwidthFromMegabytesPerSecond constructs a Bandwidth from a MB/s
// figure (8 bits per byte).
func BandwidthFromMegabytesPerSecond(n uint64) Bandwidth { return Bandwidth(n * 8) }

// IntoBitsPerSecond returns the raw bits-per-second figure.
func (b Bandwidth) IntoBitsPerSecond() uint64 { return uint64(b) * 1024 * 1024 }

func (b Bandwidth) String() string {
	return fmt.Sprintf("%dMbit/s", uint64(b))
}
