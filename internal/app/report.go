package service

import (
	"time"

	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/internal/domain/toi"
)

// TickSummary totals tick outcomes across the games of a run.
type TickSummary struct {
	Total       int `json:"total"`
	Distributed int `json:"distributed"`
	Shootout    int `json:"shootout"`
	Anomaly     int `json:"anomaly"`
	Clipped     int `json:"clipped"`
}

func (t *TickSummary) add(g *toi.GameTOI) {
	t.Total += g.Ticks
	t.Distributed += g.Distributed
	t.Shootout += g.Shootout
	t.Anomaly += g.Anomaly
	t.Clipped += g.Clipped
}

// Report describes one run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Shifts     int
	Duplicates int
	Rejected   []model.ShiftRejection
	Games      int
	Failures   []model.GameFailure
	Ticks      TickSummary

	Result combine.Result
	Sink   string

	toi []*toi.GameTOI
}

// Summary is the JSON-friendly digest of a report.
type Summary struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMs int64       `json:"duration_ms"`
	Shifts     int         `json:"shifts"`
	Duplicates int         `json:"duplicates"`
	Rejected   int         `json:"rejected"`
	Games      int         `json:"games"`
	Failed     int         `json:"failed"`
	PlayerRows int         `json:"player_rows"`
	TeamRows   int         `json:"team_rows"`
	Ticks      TickSummary `json:"ticks"`
	Sink       string      `json:"sink,omitempty"`
}

// Summary digests the report.
func (r *Report) Summary() Summary {
	return Summary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMs: r.Duration.Milliseconds(),
		Shifts:     r.Shifts,
		Duplicates: r.Duplicates,
		Rejected:   len(r.Rejected),
		Games:      r.Games,
		Failed:     len(r.Failures),
		PlayerRows: len(r.Result.Players),
		TeamRows:   len(r.Result.Teams),
		Ticks:      r.Ticks,
		Sink:       r.Sink,
	}
}
