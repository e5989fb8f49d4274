package obs

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeycumines/logiface"
)

// Event is a minimal logiface.Event implementation: a flat ordered list of
// key=value pairs rendered as logfmt. It is grounded on the shape of
// logiface/stumpy's Event (a level plus an append-only field buffer) but
// does not depend on stumpy directly, since the retrieved stumpy module
// pins the pre-migration logiface import path and would not resolve
// alongside the current one.
type Event struct {
	logiface.UnimplementedEvent
	level Level
	msg   string
	err   error
	kv    []string
}

// Level is an alias kept local so callers of obs don't need to import
// logiface directly for the common cases.
type Level = logiface.Level

func (e *Event) Level() logiface.Level { return e.level }

func (e *Event) AddField(key string, val any) {
	e.kv = append(e.kv, fmt.Sprintf("%s=%v", key, val))
}

func (e *Event) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *Event) AddError(err error) bool {
	e.err = err
	return true
}

func (e *Event) AddString(key string, val string) bool {
	e.AddField(key, val)
	return true
}

func (e *Event) AddInt(key string, val int) bool {
	e.AddField(key, val)
	return true
}

func (e *Event) AddBool(key string, val bool) bool {
	e.AddField(key, val)
	return true
}

func (e *Event) AddDuration(key string, val time.Duration) bool {
	e.AddField(key, val)
	return true
}

func (e *Event) render() string {
	var b strings.Builder
	b.WriteString(e.level.String())
	b.WriteByte(' ')
	b.WriteString(e.msg)
	for _, kv := range e.kv {
		b.WriteByte(' ')
		b.WriteString(kv)
	}
	if e.err != nil {
		b.WriteString(" err=")
		b.WriteString(e.err.Error())
	}
	return b.String()
}
