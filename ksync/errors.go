// Package ksync provides the async synchronization primitives layered on
// top of the kernel executor: a fair mutex, a condition variable, a
// multi-producer batched channel, and a one-shot channel.
package ksync

// kernelError mirrors kernel.Error's shape so ksync's panics carry the
// same "programming error, not a runtime value" framing without ksync
// needing to depend on kernel's unexported constructor.
type kernelError struct {
	Kind    string
	Message string
	Cause   error
}

func (e *kernelError) Error() string { return e.Kind + ": " + e.Message }

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *kernelError) Unwrap() error { return e.Cause }

// ErrInvalidTimeout is panicked by LockWithTimeout and WaitWithTimeout
// when given a zero duration.
var ErrInvalidTimeout = &kernelError{Kind: "InvalidTimeout", Message: "zero timeout passed to a *_with_timeout call"}

// ErrSenderDropped is returned (never panicked) by OneshotReceiver.Recv
// when the sender was closed without ever sending a value.
var ErrSenderDropped = &kernelError{Kind: "SenderDropped", Message: "one-shot sender closed without sending"}
