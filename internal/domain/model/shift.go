// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// GoaliePosition is the position code shift charts use for goaltenders.
const GoaliePosition = "G"

// Clock bounds. MaxPeriod leaves room past the longest game on record
// (six overtimes, period 9).
const (
	PeriodSeconds = 1200
	MaxPeriod     = 12
)

// Shift is one continuous on-ice interval of a player within a period.
// Start and End are seconds elapsed in the period.
type Shift struct {
	Player   string // display name
	PlayerID int64
	Position string
	GameID   int
	Date     string // YYYY-MM-DD
	Team     string
	Period   int // 1-indexed
	Start    int
	End      int
	Duration int
}

// IsGoalie reports whether the shift belongs to a goaltender.
func (s Shift) IsGoalie() bool {
	return strings.EqualFold(strings.TrimSpace(s.Position), GoaliePosition)
}

// Key identifies a shift row for duplicate detection.
func (s Shift) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.GameID))
	b.WriteByte('|')
	b.WriteString(s.Team)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(s.PlayerID, 10))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(s.Period))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(s.Start))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(s.End))
	return b.String()
}

// Validate rejects shifts that would corrupt timeline construction.
func (s Shift) Validate() error {
	switch {
	case s.PlayerID <= 0:
		return ErrMissingPlayerID
	case strings.TrimSpace(s.Team) == "":
		return ErrMissingTeam
	case s.GameID <= 0:
		return ErrMissingGameID
	case s.Period < 1 || s.Period > MaxPeriod:
		return fmt.Errorf("%w: %d", ErrInvalidPeriod, s.Period)
	case s.Start < 0 || s.End < 0:
		return ErrNegativeTime
	case s.End > PeriodSeconds:
		return fmt.Errorf("%w: end %d", ErrTimeOutOfRange, s.End)
	case s.Duration < 0:
		return ErrNegativeDuration
	case s.Start > s.End:
		return fmt.Errorf("%w: %d > %d", ErrStartAfterEnd, s.Start, s.End)
	}
	return nil
}

// ShiftRejection records a shift dropped during validation.
type ShiftRejection struct {
	Shift  Shift
	Reason error
}

// Length is an authoritative game length supplied by upstream data:
// the final period played and the seconds elapsed in it.
type Length struct {
	Period int
	End    int
}

// Validate rejects lengths outside the game clock.
func (l Length) Validate() error {
	switch {
	case l.Period < 1 || l.Period > MaxPeriod:
		return fmt.Errorf("%w: period %d", ErrInvalidLength, l.Period)
	case l.End < 0 || l.End > PeriodSeconds:
		return fmt.Errorf("%w: end %d", ErrInvalidLength, l.End)
	}
	return nil
}

// Game bundles the shifts of a single game.
type Game struct {
	ID     int
	Date   string
	Shifts []Shift
	// Length overrides inference from the last shift when set.
	Length *Length
}

// IsPlayoff reports whether the game id falls in the playoff range.
func (g Game) IsPlayoff() bool {
	return IsPlayoffGame(g.ID)
}

// PlayoffGameIDThreshold is the first game id of the playoff range.
const PlayoffGameIDThreshold = 30000

// IsPlayoffGame reports whether id is a playoff game id.
func IsPlayoffGame(id int) bool {
	return id >= PlayoffGameIDThreshold
}

// GameFailure records a game skipped during a batch.
type GameFailure struct {
	GameID int
	Err    error
}
