package obs

import (
	"context"

	"github.com/zoobzio/tracez"
)

// Span keys published around the executor's pass loop and network
// transit.
const (
	SpanExecutorPass = tracez.Key("kernel.executor.pass")
	SpanTimerAdvance = tracez.Key("kernel.timer.advance")
	SpanLinkTransit  = tracez.Key("netsim.link.transit")
	SpanNodeInbox    = tracez.Key("netsim.node.inbox")
)

// Tags attached to netsim spans.
const (
	TagNodeID = tracez.Tag("node.id")
	TagLinkID = tracez.Tag("link.id")
)

// Tracer wraps a tracez.Tracer. A nil *Tracer is valid and a no-op.
type Tracer struct {
	inner *tracez.Tracer
}

// NewTracer returns a Tracer backed by a fresh tracez.Tracer.
func NewTracer() *Tracer {
	return &Tracer{inner: tracez.New()}
}

// Inner exposes the underlying tracez.Tracer.
func (t *Tracer) Inner() *tracez.Tracer {
	if t == nil {
		return nil
	}
	return t.inner
}

// Span is a no-op-safe handle returned by Tracer.Start.
type Span struct {
	inner *tracez.Span
}

func (t *Tracer) Start(ctx context.Context, key tracez.Key) (context.Context, *Span) {
	if t == nil {
		return ctx, &Span{}
	}
	ctx, span := t.inner.StartSpan(ctx, key)
	return ctx, &Span{inner: span}
}

func (s *Span) SetTag(tag tracez.Tag, value string) {
	if s == nil || s.inner == nil {
		return
	}
	s.inner.SetTag(tag, value)
}

func (s *Span) Finish() {
	if s == nil || s.inner == nil {
		return
	}
	s.inner.Finish()
}
