package flow

import "errors"

var (
	// ErrInFlight rejects a submit while the previous one is still pending.
	ErrInFlight = errors.New("flow: a request is already in flight")
	// ErrIncomplete is returned when title or code is blank; no request was sent.
	ErrIncomplete = errors.New("flow: " + MsgIncomplete)
	// ErrClosed is returned by a flow used after Close.
	ErrClosed = errors.New("flow: closed")
	// ErrSuperseded marks a response dropped because a newer navigation replaced it.
	ErrSuperseded = errors.New("flow: superseded by a newer request")
	// ErrNoClipboard is returned by Copy when no clipboard was configured.
	ErrNoClipboard = errors.New("flow: no clipboard available")
)

type options struct {
	clipboard Clipboard
	clock     Clock
}

// Option configures a flow.
type Option func(*options)

// WithClipboard sets where copy actions write. Without it Copy returns ErrNoClipboard.
func WithClipboard(c Clipboard) Option {
	return func(o *options) { o.clipboard = c }
}

// WithClock replaces wall time for the copy acknowledgment.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
