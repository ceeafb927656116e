package model

import "errors"

// Sentinel errors for malformed shifts.
var (
	ErrMissingPlayerID  = errors.New("missing player id")
	ErrMissingTeam      = errors.New("missing team")
	ErrMissingGameID    = errors.New("missing game id")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrNegativeTime     = errors.New("negative shift time")
	ErrNegativeDuration = errors.New("negative duration")
	ErrStartAfterEnd    = errors.New("shift starts after it ends")
	ErrTimeOutOfRange   = errors.New("shift time past the end of the period")
	ErrInvalidLength    = errors.New("invalid game length")
)

// Reason maps a validation error to a short metrics label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingPlayerID):
		return "missing_player_id"
	case errors.Is(err, ErrMissingTeam):
		return "missing_team"
	case errors.Is(err, ErrMissingGameID):
		return "missing_game_id"
	case errors.Is(err, ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, ErrNegativeTime):
		return "negative_time"
	case errors.Is(err, ErrNegativeDuration):
		return "negative_duration"
	case errors.Is(err, ErrStartAfterEnd):
		return "start_after_end"
	case errors.Is(err, ErrTimeOutOfRange):
		return "time_out_of_range"
	case errors.Is(err, ErrInvalidLength):
		return "invalid_length"
	default:
		return "other"
	}
}
