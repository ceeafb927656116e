package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/icetime/internal/adapters/postgres"
	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/pkg/logger"
)

const (
	createPlayerTOI = `create table if not exists player_toi (
	player text, player_id bigint, position text, game_id bigint, date text, team text,
	strength text, if_empty bigint, toi_on double precision, toi_off double precision)`
	createTeamTOI = `create table if not exists team_toi (
	team text, game_id bigint, date text, strength text, if_empty bigint, toi double precision)`
)

// Beginner starts transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres replaces the rows of the written games and bulk-loads the new
// ones with COPY, in one transaction.
type Postgres struct {
	db   Beginner
	pool *pgxpool.Pool
}

// NewPostgres creates a sink over db.
func NewPostgres(db Beginner) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres connects to url and creates a sink owning the pool.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: database url", ErrMissingTarget)
	}
	pool, err := postgres.Connect(ctx, url, postgres.WithTracer(logger.Named("postgres")))
	if err != nil {
		return nil, err
	}
	return &Postgres{db: pool, pool: pool}, nil
}

func (p *Postgres) Name() string { return KindPostgres }

func (p *Postgres) Write(ctx context.Context, res combine.Result) error {
	ids := res.GameIDs()
	if len(ids) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		for _, stmt := range []string{createPlayerTOI, createTeamTOI} {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}
		for _, table := range []string{model.PlayerTOITable, model.TeamTOITable} {
			sql := fmt.Sprintf("delete from %s where game_id = any($1)", pgx.Identifier{table}.Sanitize())
			if _, err := tx.Exec(ctx, sql, ids); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{model.PlayerTOITable}, playerColumns,
			pgx.CopyFromSlice(len(res.Players), func(i int) ([]any, error) {
				return playerValues(res.Players[i]), nil
			})); err != nil {
			return fmt.Errorf("copy %s: %w", model.PlayerTOITable, err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{model.TeamTOITable}, teamColumns,
			pgx.CopyFromSlice(len(res.Teams), func(i int) ([]any, error) {
				return teamValues(res.Teams[i]), nil
			})); err != nil {
			return fmt.Errorf("copy %s: %w", model.TeamTOITable, err)
		}
		return nil
	})
}

// Close closes the pool when the sink opened it.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
