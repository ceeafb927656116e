// Package timeline builds the per-second ice presence of a single game.
//
// A timeline holds one tick per elapsed second and, for every rostered
// player, a Presence value per tick. Build sizes the timeline and seeds the
// roster; Project walks the shifts and marks presence. Both must complete
// before the timeline is handed to the distributor.
package timeline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/okian/icetime/internal/domain/model"
)

// Game clock constants.
const (
	PeriodSeconds     = model.PeriodSeconds
	PeriodTicks       = PeriodSeconds + 1 // ticks 0..1200 inclusive
	RegulationPeriods = 3
	OvertimePeriod    = 4
)

// Presence is a player's state at one tick.
type Presence uint8

// Presence values are ordered: a higher value is never overwritten by a lower one.
const (
	OffIce Presence = iota
	// TransitioningOff marks the last tick of a shift. It earns off-ice credit.
	TransitioningOff
	OnIce
)

func (p Presence) String() string {
	switch p {
	case OffIce:
		return "off"
	case TransitioningOff:
		return "transitioning_off"
	case OnIce:
		return "on"
	default:
		return "unknown"
	}
}

// Player is one roster entry. Team is the index into Timeline.Teams.
type Player struct {
	ID       int64
	Name     string
	Position string
	Team     int
	Goalie   bool
}

type rosterKey struct {
	team string
	id   int64
}

// Timeline is the discrete second-by-second state of one game.
type Timeline struct {
	GameID int
	Date   string
	Teams  [2]string
	Roster []Player

	ticks    int
	presence []Presence // tick-major, len = ticks * len(Roster)
	index    map[rosterKey]int
	shifts   []model.Shift
	clipped  int
}

// Build sizes the timeline for game and seeds its roster with every player
// present in the shift set. All ticks start OffIce. A length outside the game
// clock, inferred or supplied, fails with model.ErrInvalidLength before
// anything is allocated.
func Build(game model.Game) (*Timeline, error) {
	if len(game.Shifts) == 0 {
		return nil, fmt.Errorf("game %d: %w", game.ID, ErrNoShifts)
	}

	shifts := slices.Clone(game.Shifts)
	slices.SortStableFunc(shifts, func(a, b model.Shift) int {
		if c := cmp.Compare(a.Period, b.Period); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})

	teams := lo.Uniq(lo.Map(shifts, func(s model.Shift, _ int) string { return s.Team }))
	if len(teams) != 2 {
		return nil, fmt.Errorf("game %d: %w: found %d (%v)", game.ID, ErrTeamCount, len(teams), teams)
	}
	slices.Sort(teams)

	t := &Timeline{
		GameID: game.ID,
		Date:   game.Date,
		Teams:  [2]string{teams[0], teams[1]},
		index:  make(map[rosterKey]int),
		shifts: shifts,
	}
	if t.Date == "" {
		t.Date = shifts[0].Date
	}

	for _, s := range shifts {
		key := rosterKey{team: s.Team, id: s.PlayerID}
		if _, ok := t.index[key]; ok {
			continue
		}
		t.index[key] = len(t.Roster)
		t.Roster = append(t.Roster, Player{
			ID:       s.PlayerID,
			Name:     s.Player,
			Position: s.Position,
			Team:     t.teamIndex(s.Team),
			Goalie:   s.IsGoalie(),
		})
	}

	last := shifts[len(shifts)-1]
	length := model.Length{Period: last.Period, End: last.End}
	if game.Length != nil {
		length = *game.Length
	}
	if err := length.Validate(); err != nil {
		return nil, fmt.Errorf("game %d: %w", game.ID, err)
	}
	t.ticks = Length(game.ID, length)
	t.presence = make([]Presence, t.ticks*len(t.Roster))

	return t, nil
}

// Length returns the number of ticks of a game that ended at length.
// Regulation is three blocks of PeriodTicks. A first overtime adds the
// seconds played in it; playoff games beyond the first overtime add a full
// block per overtime period played before the final one.
func Length(gameID int, length model.Length) int {
	n := RegulationPeriods * PeriodTicks
	switch {
	case length.Period == OvertimePeriod:
		n += length.End + 1
	case model.IsPlayoffGame(gameID) && length.Period > OvertimePeriod:
		n += (length.Period-OvertimePeriod)*PeriodTicks + length.End + 1
	}
	return n
}

// Absolute converts a period-relative second to a timeline tick.
func Absolute(period, second int) int {
	return second + PeriodSeconds*(period-1)
}

func (t *Timeline) teamIndex(team string) int {
	if team == t.Teams[1] {
		return 1
	}
	return 0
}

// Project marks every shift of the game onto the timeline. Every tick of a
// shift before its last is OnIce; the last tick is TransitioningOff. Ticks
// outside the timeline are dropped and counted. Project returns the number
// of ticks clipped by this call.
func (t *Timeline) Project() int {
	clipped := 0
	width := len(t.Roster)
	for _, s := range t.shifts {
		p := t.index[rosterKey{team: s.Team, id: s.PlayerID}]
		start, end := Absolute(s.Period, s.Start), Absolute(s.Period, s.End)
		for x := start; x <= end; x++ {
			if x < 0 || x >= t.ticks {
				clipped++
				continue
			}
			state := OnIce
			if x == end {
				state = TransitioningOff
			}
			cell := &t.presence[x*width+p]
			if state > *cell {
				*cell = state
			}
		}
	}
	t.clipped += clipped
	return clipped
}

// Ticks returns the number of ticks in the timeline.
func (t *Timeline) Ticks() int { return t.ticks }

// Clipped returns the number of shift ticks that fell outside the timeline.
func (t *Timeline) Clipped() int { return t.clipped }

// Presence returns the state of roster entry player at tick.
func (t *Timeline) Presence(tick, player int) Presence {
	return t.presence[tick*len(t.Roster)+player]
}

// Row returns the presence of every roster entry at tick. The slice aliases
// the timeline and must not be modified.
func (t *Timeline) Row(tick int) []Presence {
	w := len(t.Roster)
	return t.presence[tick*w : (tick+1)*w]
}

// Count returns the OnIce skaters and goalies of each team at tick.
func (t *Timeline) Count(tick int) (skaters, goalies [2]int) {
	for p, state := range t.Row(tick) {
		if state != OnIce {
			continue
		}
		pl := t.Roster[p]
		if pl.Goalie {
			goalies[pl.Team]++
		} else {
			skaters[pl.Team]++
		}
	}
	return skaters, goalies
}

// PlayerIndex returns the roster index of a player of team.
func (t *Timeline) PlayerIndex(team string, id int64) (int, bool) {
	i, ok := t.index[rosterKey{team: team, id: id}]
	return i, ok
}
