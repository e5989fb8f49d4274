// Package obs wires the simulation kernel's ambient concerns -- structured
// logging, metrics, tracing, and lifecycle hooks -- to the third-party
// stack carried over from the example pack, all with a zero-dependency
// no-op default so kernel, ksync, and netsim never require a caller to
// configure observability before they work.
package obs

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
)

// Logger is the structured-logging handle threaded optionally through the
// kernel and the network layer's nodes.
type Logger struct {
	inner *logiface.Logger[*Event]
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) Write(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintln(l.w, event.render())
	return err
}

// NewLogger returns a Logger that writes logfmt-style lines to w, grounded
// on logiface's builder-chain API (github.com/joeycumines/logiface).
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{
		inner: logiface.New[*Event](
			logiface.WithEventFactory[*Event](logiface.NewEventFactoryFunc(func(lvl logiface.Level) *Event {
				return &Event{level: lvl}
			})),
			logiface.WithWriter[*Event](&lineWriter{w: w}),
			logiface.WithLevel[*Event](level),
		),
	}
}

// NewStderrLogger is the common case: a logfmt logger at Info level,
// writing to stderr.
func NewStderrLogger() *Logger {
	return NewLogger(os.Stderr, logiface.LevelInformational)
}

// NewNoOpLogger returns a Logger with logging disabled entirely. Kernel
// and netsim components default to this when no Logger is supplied,
// so observability is opt-in rather than a required dependency.
func NewNoOpLogger() *Logger {
	return &Logger{
		inner: logiface.New[*Event](
			logiface.WithLevel[*Event](logiface.LevelDisabled),
		),
	}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(l.inner.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(l.inner.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(l.inner.Warning(), msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(l.inner.Err(), msg, kv) }

func (l *Logger) log(b *logiface.Builder[*Event], msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		b = b.Field(key, kv[i+1])
	}
	b.Log(msg)
}
