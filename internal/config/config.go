// Package config defines process configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file, then
// ICETIME_* environment variables.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Sink names accepted by Validate. Empty means no sink.
var validSinks = map[string]bool{"": true, "csv": true, "postgres": true, "sqlite": true}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of per-game workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory game queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the shift keys remembered per batch.
	DedupeSize int `koanf:"dedupe_size"`

	// Sink selects where batch output goes: csv, postgres or sqlite.
	Sink string `koanf:"sink"`

	// OutputDir is the csv sink directory.
	OutputDir string `koanf:"output_dir"`

	// DatabaseURL is the Postgres connection string used by the postgres
	// source and sink.
	DatabaseURL string `koanf:"database_url"`

	// SQLitePath is the sqlite sink database file.
	SQLitePath string `koanf:"sqlite_path"`

	// ShiftsTable is the Postgres table shifts are read from.
	ShiftsTable string `koanf:"shifts_table"`

	// TeamAliases rewrites team codes of player rows. Entries are merged
	// over the built-in table.
	TeamAliases map[string]string `koanf:"team_aliases"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		WorkerCount: runtime.NumCPU(),
		QueueSize:   1024,
		DedupeSize:  1 << 20,
		Sink:        "csv",
		OutputDir:   "out",
		SQLitePath:  "icetime.db",
		ShiftsTable: "shifts",
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case !validSinks[strings.ToLower(c.Sink)]:
		return fmt.Errorf("%w: unknown sink %q", ErrInvalidConfig, c.Sink)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
