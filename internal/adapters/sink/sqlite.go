package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/internal/domain/model"
)

// SQLite keeps the TOI tables in a local database file with the same
// replace-by-game semantics as Postgres.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path", ErrMissingTarget)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS player_toi (
			player    TEXT,
			player_id INTEGER,
			position  TEXT,
			game_id   INTEGER,
			date      TEXT,
			team      TEXT,
			strength  TEXT,
			if_empty  INTEGER,
			toi_on    REAL,
			toi_off   REAL
		)`,
		`CREATE TABLE IF NOT EXISTS team_toi (
			team     TEXT,
			game_id  INTEGER,
			date     TEXT,
			strength TEXT,
			if_empty INTEGER,
			toi      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_player_toi_game ON player_toi(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_team_toi_game ON team_toi(game_id)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Name() string { return KindSQLite }

// DB exposes the handle for read-side queries.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Write(ctx context.Context, res combine.Result) (err error) {
	ids := res.GameIDs()
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{model.PlayerTOITable, model.TeamTOITable} {
		for _, id := range ids {
			if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE game_id = ?", id); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
	}

	if err = insertRows(ctx, tx, model.PlayerTOITable, playerColumns, res.Players, playerValues); err != nil {
		return err
	}
	if err = insertRows(ctx, tx, model.TeamTOITable, teamColumns, res.Teams, teamValues); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertRows[T any](ctx context.Context, tx *sql.Tx, table string, cols []string, rows []T, values func(T) []any) error {
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks))
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, values(r)...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
