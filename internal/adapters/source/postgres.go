package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/okian/icetime/internal/adapters/postgres"
	"github.com/okian/icetime/internal/domain/model"
)

const (
	defaultShiftsTable = "shifts"
	dateLayout         = time.DateOnly
)

// Postgres reads the shifts of a date range from a shifts table.
type Postgres struct {
	db    postgres.Querier
	table string
	from  string
	to    string
}

// PostgresOption configures a Postgres source.
type PostgresOption func(*Postgres)

// WithTable sets the shifts table, e.g. "shifts2018".
func WithTable(table string) PostgresOption {
	return func(p *Postgres) {
		if table != "" {
			p.table = table
		}
	}
}

// WithDateRange limits the load to games dated from..to inclusive (YYYY-MM-DD).
func WithDateRange(from, to string) PostgresOption {
	return func(p *Postgres) {
		p.from, p.to = from, to
	}
}

// NewPostgres creates a Postgres source.
func NewPostgres(db postgres.Querier, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, table: defaultShiftsTable}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Query returns the select statement for the configured table.
func (p *Postgres) Query() string {
	return fmt.Sprintf(`select coalesce(player, ''), player_id::bigint, coalesce(position, ''),
	game_id::bigint, date, team, period::int, start::int, "end"::int, coalesce(duration, "end" - start)::int
	from %s
	where cast(date as date) between $1 and $2
	order by game_id, period, "end"`, pgx.Identifier{p.table}.Sanitize())
}

// Load reads every shift in the date range.
func (p *Postgres) Load(ctx context.Context) ([]model.Shift, error) {
	from, to, err := p.dateRange()
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(ctx, p.Query(), from, to)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}
	shifts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Shift, error) {
		var s model.Shift
		err := row.Scan(&s.Player, &s.PlayerID, &s.Position, &s.GameID, &s.Date, &s.Team,
			&s.Period, &s.Start, &s.End, &s.Duration)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.table, err)
	}
	return shifts, nil
}

func (p *Postgres) dateRange() (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, p.from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q", ErrDateRange, p.from)
	}
	to, err := time.Parse(dateLayout, p.to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q", ErrDateRange, p.to)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s is before %s", ErrDateRange, p.to, p.from)
	}
	return from, to, nil
}
