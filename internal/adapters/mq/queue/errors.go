package queue

import "errors"

// Sentinel errors returned by the queue.
var (
	ErrQueueClosed = errors.New("queue closed")
	ErrQueueFull   = errors.New("queue full")
)
