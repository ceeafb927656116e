// Package sink persists combined TOI rows.
package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/internal/domain/model"
)

// Sink kinds accepted by Open.
const (
	KindCSV      = "csv"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
)

// Sink writes one batch of rows. Writing the same games again replaces them.
type Sink interface {
	Name() string
	Write(ctx context.Context, res combine.Result) error
	Close() error
}

// Settings holds what each kind needs to open.
type Settings struct {
	OutputDir   string
	DatabaseURL string
	SQLitePath  string
}

// Open creates the sink named by kind.
func Open(ctx context.Context, kind string, s Settings) (Sink, error) {
	var (
		sk  Sink
		err error
	)
	switch kind {
	case KindCSV:
		sk, err = NewCSV(s.OutputDir)
	case KindPostgres:
		sk, err = OpenPostgres(ctx, s.DatabaseURL)
	case KindSQLite:
		sk, err = OpenSQLite(ctx, s.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, kind)
	}
	if err != nil {
		return nil, err
	}
	return sk, nil
}

var (
	playerColumns = []string{"player", "player_id", "position", "game_id", "date", "team", "strength", "if_empty", "toi_on", "toi_off"}
	teamColumns   = []string{"team", "game_id", "date", "strength", "if_empty", "toi"}
)

func playerValues(r model.PlayerTOIRow) []any { //nolint:gocritic // hugeParam: rows are small value types
	return []any{r.Player, r.PlayerID, r.Position, r.GameID, r.Date, r.Team, r.Strength, r.IfEmpty, r.TOIOn, r.TOIOff}
}

func teamValues(r model.TeamTOIRow) []any {
	return []any{r.Team, r.GameID, r.Date, r.Strength, r.IfEmpty, r.TOI}
}

func playerRecord(r model.PlayerTOIRow) []string { //nolint:gocritic // hugeParam: rows are small value types
	return []string{
		r.Player,
		strconv.FormatInt(r.PlayerID, 10),
		r.Position,
		strconv.Itoa(r.GameID),
		r.Date,
		r.Team,
		r.Strength,
		strconv.Itoa(r.IfEmpty),
		strconv.Itoa(r.TOIOn),
		strconv.Itoa(r.TOIOff),
	}
}

func teamRecord(r model.TeamTOIRow) []string {
	return []string{
		r.Team,
		strconv.Itoa(r.GameID),
		r.Date,
		r.Strength,
		strconv.Itoa(r.IfEmpty),
		strconv.Itoa(r.TOI),
	}
}
