// Package combine flattens per-game TOI into player and team rows.
package combine

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/icetime/internal/domain/dedupe"
	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/internal/domain/strength"
	"github.com/okian/icetime/internal/domain/toi"
)

// DefaultAliases maps shift-chart team codes to the codes used by the
// rest of the data set.
func DefaultAliases() map[string]string {
	return map[string]string{
		"TBL": "T.B",
		"LAK": "L.A",
		"NJD": "N.J",
		"SJS": "S.J",
	}
}

// Combiner flattens games into rows. It is immutable and safe for
// concurrent use.
type Combiner struct {
	aliases map[string]string
}

// New creates a combiner with DefaultAliases unless overridden.
func New(opts ...Option) *Combiner {
	c := &Combiner{aliases: DefaultAliases()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Alias returns the output code of team. Unknown teams pass through.
func (c *Combiner) Alias(team string) string {
	if a, ok := c.aliases[team]; ok {
		return a
	}
	return team
}

// Result is the flattened output of a set of games.
type Result struct {
	Players []model.PlayerTOIRow
	Teams   []model.TeamTOIRow
	// Dropped counts rows removed for empty or repeated keys.
	Dropped int
}

// Combine flattens games ordered by game id. Every player and team gets one
// row per strength label and empty-net state, zero rows included. Aliases
// apply to player rows only. Repeated games produce no extra rows.
func (c *Combiner) Combine(games ...*toi.GameTOI) Result {
	sorted := slices.DeleteFunc(slices.Clone(games), func(g *toi.GameTOI) bool { return g == nil })
	slices.SortStableFunc(sorted, func(a, b *toi.GameTOI) int { return cmp.Compare(a.GameID, b.GameID) })

	var res Result
	for _, g := range sorted {
		for t := range g.Teams {
			team := g.Teams[t]
			for _, p := range g.Players {
				if p.Team != team.Team {
					continue
				}
				res.Players = append(res.Players, c.playerRows(g, p)...)
			}
			res.Teams = append(res.Teams, teamRows(g, team)...)
		}
	}

	var dropped int
	res.Players, dropped = dedupe.Unique(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0)), res.Players, PlayerKey)
	res.Dropped += dropped
	res.Teams, dropped = dedupe.Unique(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0)), res.Teams, TeamKey)
	res.Dropped += dropped

	return res
}

func (c *Combiner) playerRows(g *toi.GameTOI, p toi.PlayerTOI) []model.PlayerTOIRow {
	rows := make([]model.PlayerTOIRow, 0, strength.Count*2)
	for _, l := range strength.All() {
		for e := toi.NotEmpty; e <= toi.Empty; e++ {
			split := p.TOI[l][e]
			rows = append(rows, model.PlayerTOIRow{
				Player:   p.Player.Name,
				PlayerID: p.Player.ID,
				Position: p.Player.Position,
				GameID:   g.GameID,
				Date:     g.Date,
				Team:     c.Alias(p.Team),
				Strength: l.String(),
				IfEmpty:  e,
				TOIOn:    split.On,
				TOIOff:   split.Off,
			})
		}
	}
	return rows
}

func teamRows(g *toi.GameTOI, t toi.TeamTOI) []model.TeamTOIRow {
	rows := make([]model.TeamTOIRow, 0, strength.Count*2)
	for _, l := range strength.All() {
		for e := toi.NotEmpty; e <= toi.Empty; e++ {
			rows = append(rows, model.TeamTOIRow{
				Team:     t.Team,
				GameID:   g.GameID,
				Date:     g.Date,
				Strength: l.String(),
				IfEmpty:  e,
				TOI:      t.TOI[l][e],
			})
		}
	}
	return rows
}

// PlayerKey identifies a player row. It is empty when the row lacks an
// identifying field.
func PlayerKey(r model.PlayerTOIRow) string {
	if r.PlayerID == 0 || r.Team == "" || r.GameID == 0 {
		return ""
	}
	return strings.Join([]string{
		strconv.Itoa(r.GameID),
		r.Team,
		strconv.FormatInt(r.PlayerID, 10),
		r.Strength,
		strconv.Itoa(r.IfEmpty),
	}, "|")
}

// TeamKey identifies a team row. It is empty when the row lacks an
// identifying field.
func TeamKey(r model.TeamTOIRow) string {
	if r.Team == "" || r.GameID == 0 {
		return ""
	}
	return strings.Join([]string{
		strconv.Itoa(r.GameID),
		r.Team,
		r.Strength,
		strconv.Itoa(r.IfEmpty),
	}, "|")
}

// GameIDs returns the distinct game ids of res in ascending order.
func (res Result) GameIDs() []int {
	seen := make(map[int]struct{})
	for _, r := range res.Players {
		seen[r.GameID] = struct{}{}
	}
	for _, r := range res.Teams {
		seen[r.GameID] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}
