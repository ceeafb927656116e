package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/internal/domain/model"
)

// CSV writes player_toi.csv and team_toi.csv into a directory. Each write
// replaces both files.
type CSV struct {
	dir string
}

// NewCSV creates the output directory if needed.
func NewCSV(dir string) (*CSV, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: output directory", ErrMissingTarget)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSV{dir: dir}, nil
}

func (c *CSV) Name() string { return KindCSV }

// Path returns the file written for table.
func (c *CSV) Path(table string) string {
	return filepath.Join(c.dir, table+".csv")
}

func (c *CSV) Write(ctx context.Context, res combine.Result) error {
	if err := writeCSV(ctx, c.Path(model.PlayerTOITable), playerColumns, res.Players, playerRecord); err != nil {
		return err
	}
	return writeCSV(ctx, c.Path(model.TeamTOITable), teamColumns, res.Teams, teamRecord)
}

func (c *CSV) Close() error { return nil }

// writeCSV writes to a temporary file and renames it over path.
func writeCSV[T any](ctx context.Context, path string, header []string, rows []T, record func(T) []string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, r := range rows {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = w.Write(record(r)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
