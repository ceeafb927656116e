package worker

import "errors"

// ErrPanic wraps a panic recovered while processing a game.
var ErrPanic = errors.New("panic while processing game")
