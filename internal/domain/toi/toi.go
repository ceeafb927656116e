// Package toi distributes time on ice over a projected game timeline.
package toi

import (
	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/internal/domain/strength"
	"github.com/okian/icetime/internal/domain/timeline"
)

// Empty-net bucket indexes.
const (
	NotEmpty = 0
	Empty    = 1
)

// EmptyIndex maps an empty-net flag to its bucket index.
func EmptyIndex(empty bool) int {
	if empty {
		return Empty
	}
	return NotEmpty
}

// Split holds on-ice and off-ice seconds.
type Split struct {
	On  int
	Off int
}

// PlayerTOI accumulates a player's seconds by strength label and empty-net state.
type PlayerTOI struct {
	Player timeline.Player
	Team   string
	TOI    [strength.Count][2]Split
}

// Total sums every bucket.
func (p *PlayerTOI) Total() Split {
	var s Split
	for l := range p.TOI {
		for e := range p.TOI[l] {
			s.On += p.TOI[l][e].On
			s.Off += p.TOI[l][e].Off
		}
	}
	return s
}

// TeamTOI accumulates a team's seconds by strength label and empty-net state.
type TeamTOI struct {
	Team string
	TOI  [strength.Count][2]int
}

// Total sums every bucket.
func (t *TeamTOI) Total() int {
	n := 0
	for l := range t.TOI {
		n += t.TOI[l][NotEmpty] + t.TOI[l][Empty]
	}
	return n
}

// GameTOI is the distributed time on ice of one game.
type GameTOI struct {
	GameID  int
	Date    string
	Teams   [2]TeamTOI
	Players []PlayerTOI

	Ticks       int // timeline length
	Distributed int // ticks attributed
	Shootout    int // ticks skipped as shootout combinations
	Anomaly     int // attributed ticks bucketed as anomaly
	Clipped     int // shift ticks outside the timeline
}

// Distribute walks tl in tick order. Every rostered player earns exactly one
// on or off second per attributed tick, and each team one second, under the
// label seen from that team and the empty-net flag. Shootout ticks are skipped.
func Distribute(tl *timeline.Timeline) *GameTOI {
	g := &GameTOI{
		GameID:  tl.GameID,
		Date:    tl.Date,
		Players: make([]PlayerTOI, len(tl.Roster)),
		Ticks:   tl.Ticks(),
		Clipped: tl.Clipped(),
	}
	for i, team := range tl.Teams {
		g.Teams[i].Team = team
	}
	for i, p := range tl.Roster {
		g.Players[i] = PlayerTOI{Player: p, Team: tl.Teams[p.Team]}
	}

	for tick := 0; tick < tl.Ticks(); tick++ {
		skaters, goalies := tl.Count(tick)

		first, shootout := strength.Classify(skaters[0], skaters[1])
		if shootout {
			g.Shootout++
			continue
		}
		labels := [2]strength.Label{first, first.Mirror()}
		e := EmptyIndex(goalies[0] == 0 || goalies[1] == 0)

		for p, state := range tl.Row(tick) {
			pl := &g.Players[p]
			cell := &pl.TOI[labels[pl.Player.Team]][e]
			if state == timeline.OnIce {
				cell.On++
			} else {
				cell.Off++
			}
		}
		g.Teams[0].TOI[labels[0]][e]++
		g.Teams[1].TOI[labels[1]][e]++

		g.Distributed++
		if first == strength.Anomaly {
			g.Anomaly++
		}
	}
	return g
}

// Compute builds, projects and distributes one game.
func Compute(game model.Game) (*GameTOI, error) {
	tl, err := timeline.Build(game)
	if err != nil {
		return nil, err
	}
	tl.Project()
	return Distribute(tl), nil
}
