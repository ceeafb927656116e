package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/icetime/internal/domain/model"
)

// Shift columns. Matching is case-insensitive.
const (
	colPlayer   = "player"
	colPlayerID = "player_id"
	colPosition = "position"
	colGameID   = "game_id"
	colDate     = "date"
	colTeam     = "team"
	colPeriod   = "period"
	colStart    = "start"
	colEnd      = "end"
	colDuration = "duration"
)

var requiredColumns = []string{colPlayerID, colGameID, colTeam, colPeriod, colStart, colEnd}

// CSVFile reads shifts from a CSV file with a header row.
type CSVFile struct {
	Path string
}

// Load reads the whole file.
func (f CSVFile) Load(ctx context.Context) ([]model.Shift, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open shifts file: %w", err)
	}
	defer fh.Close()

	shifts, err := ReadCSV(ctx, fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return shifts, nil
}

// ReadCSV parses shifts from r. player_id and the clock columns may carry a
// fractional zero ("8471214.0"); player, position, date and duration are
// optional. A missing duration is derived from start and end.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Shift, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var shifts []model.Shift
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}

func parseRecord(rec []string, cols map[string]int) (model.Shift, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		s   model.Shift
		err error
	)
	s.Player = field(colPlayer)
	s.Position = field(colPosition)
	s.Date = field(colDate)
	s.Team = field(colTeam)

	if s.PlayerID, err = parseInt64(colPlayerID, field(colPlayerID)); err != nil {
		return s, err
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{colGameID, &s.GameID},
		{colPeriod, &s.Period},
		{colStart, &s.Start},
		{colEnd, &s.End},
	}
	for _, c := range ints {
		v, err := parseInt64(c.name, field(c.name))
		if err != nil {
			return s, err
		}
		*c.dst = int(v)
	}

	if d := field(colDuration); d != "" {
		v, err := parseInt64(colDuration, d)
		if err != nil {
			return s, err
		}
		s.Duration = int(v)
	} else {
		s.Duration = s.End - s.Start
	}
	return s, nil
}

func parseInt64(name, v string) (int64, error) {
	if v == "" {
		return 0, fmt.Errorf("%w: %s is empty", ErrParseRow, name)
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s=%q", ErrParseRow, name, v)
	}
	return int64(f), nil
}
