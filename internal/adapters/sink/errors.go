package sink

import "errors"

// Sentinel errors for sinks.
var (
	ErrUnknownSink   = errors.New("unknown sink")
	ErrMissingTarget = errors.New("sink target not configured")
)
