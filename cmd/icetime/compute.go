package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/icetime/internal/adapters/postgres"
	"github.com/okian/icetime/internal/adapters/sink"
	"github.com/okian/icetime/internal/adapters/source"
	app "github.com/okian/icetime/internal/app"
	"github.com/okian/icetime/internal/config"
	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/pkg/logger"
)

var errSourceFlags = errors.New("exactly one of --shifts or --from/--to is required")

type computeFlags struct {
	shifts string
	from   string
	to     string

	sink        string
	outputDir   string
	databaseURL string
	sqlitePath  string
	table       string
	workers     int
}

func newComputeCmd(g *globals) *cobra.Command {
	f := &computeFlags{}
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute TOI for a batch of shifts and write it to a sink",
		Example: `  icetime compute --shifts shifts.csv --sink csv --output-dir out
  icetime compute --from 2018-10-03 --to 2019-04-06 --sink postgres`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return f.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(g.cfg)
			return runCompute(cmd, g, f)
		},
	}

	cmd.Flags().StringVar(&f.shifts, "shifts", "", "CSV file of shifts")
	cmd.Flags().StringVar(&f.from, "from", "", "first game date to load from Postgres (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last game date to load from Postgres (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.sink, "sink", "", "where to write rows (csv, postgres, sqlite)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "directory for the csv sink")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", "", "Postgres connection string")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "database file for the sqlite sink")
	cmd.Flags().StringVar(&f.table, "table", "", "Postgres shifts table")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "number of game workers")
	return cmd
}

func (f *computeFlags) validate() error {
	byFile := f.shifts != ""
	byDate := f.from != "" || f.to != ""
	if byFile == byDate {
		return errSourceFlags
	}
	if byDate && (f.from == "" || f.to == "") {
		return fmt.Errorf("%w: both --from and --to are needed", errSourceFlags)
	}
	return nil
}

// apply lets flags override the loaded config.
func (f *computeFlags) apply(cfg *config.Config) {
	if f.sink != "" {
		cfg.Sink = f.sink
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.databaseURL != "" {
		cfg.DatabaseURL = f.databaseURL
	}
	if f.sqlitePath != "" {
		cfg.SQLitePath = f.sqlitePath
	}
	if f.table != "" {
		cfg.ShiftsTable = f.table
	}
	if f.workers > 0 {
		cfg.WorkerCount = f.workers
	}
}

func runCompute(cmd *cobra.Command, g *globals, f *computeFlags) error {
	ctx := cmd.Context()
	cfg := g.cfg
	log := logger.Named("compute")

	src, closeSrc, err := openSource(ctx, f, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	shifts, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load shifts: %w", err)
	}
	log.Info(ctx, "shifts loaded", logger.Int("shifts", len(shifts)))

	sk, err := sink.Open(ctx, cfg.Sink, sink.Settings{
		OutputDir:   cfg.OutputDir,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sk.Close(); err != nil {
			log.Error(ctx, "close sink", logger.Error(err))
		}
	}()

	svc := newService(cfg, app.WithSink(sk))
	rep, err := svc.Run(ctx, app.Batch{Shifts: shifts})
	if rep != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(rep.Summary()); encErr != nil {
			return errors.Join(err, encErr)
		}
	}
	return err
}

func openSource(ctx context.Context, f *computeFlags, cfg *config.Config) (source.Source, func(), error) {
	if f.shifts != "" {
		return source.CSVFile{Path: f.shifts}, func() {}, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("--from/--to need a database url")
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.WithTracer(logger.Named("postgres")))
	if err != nil {
		return nil, nil, err
	}
	src := source.NewPostgres(pool,
		source.WithTable(cfg.ShiftsTable),
		source.WithDateRange(f.from, f.to),
	)
	return src, pool.Close, nil
}

func newService(cfg *config.Config, opts ...app.Option) *app.Service {
	base := []app.Option{
		app.WithLogger(logger.Get()),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCombiner(combine.New(combine.WithTeamAliases(cfg.TeamAliases))),
	}
	return app.New(append(base, opts...)...)
}
