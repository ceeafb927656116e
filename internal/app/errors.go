package service

import "errors"

// ErrNotProcessed marks games left in the queue when a run is cancelled.
var ErrNotProcessed = errors.New("game not processed")
