package timeline

import "errors"

// Structural errors. They fail a single game, never a batch.
var (
	ErrNoShifts  = errors.New("no shifts")
	ErrTeamCount = errors.New("expected exactly two teams")
)
