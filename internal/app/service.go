// Package service runs TOI batches: it cleans shift rows, fans games out to
// a worker pool, combines the results and hands them to a sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/icetime/internal/adapters/mq/queue"
	"github.com/okian/icetime/internal/adapters/mq/worker"
	"github.com/okian/icetime/internal/domain/combine"
	"github.com/okian/icetime/internal/domain/dedupe"
	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/internal/domain/timeline"
	"github.com/okian/icetime/internal/domain/toi"
	"github.com/okian/icetime/pkg/logger"
	"github.com/okian/icetime/pkg/metrics"
)

const (
	defaultQueueSize  = 1024
	defaultDedupeSize = 1 << 20
)

// Sink persists combined rows.
type Sink interface {
	Name() string
	Write(ctx context.Context, res combine.Result) error
}

// Batch is the input of one run.
type Batch struct {
	Shifts []model.Shift
	// Lengths holds authoritative game lengths by game id. Games without an
	// entry have their length inferred from the last shift.
	Lengths map[int]model.Length
}

// Service runs batches. Runs are serialized.
type Service struct {
	mu    sync.RWMutex
	runMu sync.Mutex

	workerCount int
	queueSize   int
	dedupeSize  int
	combiner    *combine.Combiner
	sink        Sink

	runs int
	last *Report

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		combiner:    combine.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Compute runs the batch without writing it anywhere.
func (s *Service) Compute(ctx context.Context, b Batch) (*Report, error) {
	return s.run(ctx, b, nil)
}

// Run computes the batch and writes the rows to the configured sink.
func (s *Service) Run(ctx context.Context, b Batch) (*Report, error) {
	return s.run(ctx, b, s.sink)
}

func (s *Service) run(ctx context.Context, b Batch, sink Sink) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	rep := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Shifts:    len(b.Shifts),
	}
	log := s.logger.With(logger.String("run_id", rep.RunID))
	log.Info(ctx, "batch started", logger.Int("shifts", len(b.Shifts)))

	games := s.prepare(b, rep)
	rep.Games = len(games)

	results, err := s.process(ctx, games)
	s.collect(ctx, log, games, results, rep)

	rep.Result = s.combiner.Combine(rep.toi...)
	rep.toi = nil
	metrics.RecordRowsCombined(model.PlayerTOITable, len(rep.Result.Players))
	metrics.RecordRowsCombined(model.TeamTOITable, len(rep.Result.Teams))

	if err == nil && sink != nil {
		err = s.write(ctx, sink, rep)
	}

	rep.Duration = time.Since(rep.StartedAt)
	if err == nil {
		metrics.RecordBatchCompleted(float64(rep.Duration.Milliseconds()))
	}
	s.remember(rep)

	log.Info(ctx, "batch finished",
		logger.Int("games", rep.Games),
		logger.Int("failed", len(rep.Failures)),
		logger.Int("rejected", len(rep.Rejected)),
		logger.Int("duplicates", rep.Duplicates),
		logger.Int("player_rows", len(rep.Result.Players)),
		logger.Int("team_rows", len(rep.Result.Teams)),
		logger.Int64("duration_ms", rep.Duration.Milliseconds()),
	)
	return rep, err
}

// prepare validates, dedupes and groups the shifts into games ordered by id.
func (s *Service) prepare(b Batch, rep *Report) []model.Game {
	valid := make([]model.Shift, 0, len(b.Shifts))
	for _, sh := range b.Shifts {
		if err := sh.Validate(); err != nil {
			rep.Rejected = append(rep.Rejected, model.ShiftRejection{Shift: sh, Reason: err})
			metrics.RecordShiftRejected(model.Reason(err))
			continue
		}
		valid = append(valid, sh)
	}

	d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	valid, rep.Duplicates = dedupe.Unique(d, valid, model.Shift.Key)
	for range rep.Duplicates {
		metrics.RecordShiftDuplicate()
	}

	byGame := lo.GroupBy(valid, func(sh model.Shift) int { return sh.GameID })
	ids := lo.Keys(byGame)
	slices.Sort(ids)

	games := make([]model.Game, 0, len(ids))
	for _, id := range ids {
		shifts := byGame[id]
		g := model.Game{ID: id, Date: shifts[0].Date, Shifts: shifts}
		if l, ok := b.Lengths[id]; ok {
			g.Length = &l
		}
		games = append(games, g)
	}
	return games
}

// process fans games out to the worker pool and waits for every result.
func (s *Service) process(ctx context.Context, games []model.Game) (map[int]worker.Result, error) {
	var mu sync.Mutex
	results := make(map[int]worker.Result, len(games))
	collector := worker.CollectorFunc(func(r worker.Result) {
		mu.Lock()
		results[r.GameID] = r
		mu.Unlock()
	})

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := worker.NewPool(min(s.workerCount, max(len(games), 1)), q, worker.ProcessorFunc(computeGame), collector)
	pool.Start(ctx)

	var err error
	for _, g := range games {
		if err = q.Enqueue(ctx, g); err != nil {
			break
		}
	}
	_ = q.Close()
	pool.Wait()

	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func computeGame(_ context.Context, g model.Game) (*toi.GameTOI, error) { //nolint:gocritic // hugeParam: jobs travel by value
	return toi.Compute(g)
}

// collect splits worker results into distributed games and failures. Games
// without a result were never processed because the run was cancelled.
func (s *Service) collect(ctx context.Context, log logger.Logger, games []model.Game, results map[int]worker.Result, rep *Report) {
	for _, g := range games {
		r, ok := results[g.ID]
		if !ok {
			cause := context.Cause(ctx)
			if cause == nil {
				cause = context.Canceled
			}
			rep.Failures = append(rep.Failures, model.GameFailure{GameID: g.ID, Err: fmt.Errorf("%w: %w", ErrNotProcessed, cause)})
			metrics.RecordGameFailed("not_processed")
			continue
		}
		if r.Err != nil {
			rep.Failures = append(rep.Failures, model.GameFailure{GameID: g.ID, Err: r.Err})
			metrics.RecordGameFailed(failureReason(r.Err))
			continue
		}

		metrics.RecordGameProcessed(float64(r.Latency.Microseconds()) / 1000)
		metrics.RecordTicks(metrics.TickDistributed, r.TOI.Distributed)
		metrics.RecordTicks(metrics.TickShootout, r.TOI.Shootout)
		metrics.RecordTicks(metrics.TickAnomaly, r.TOI.Anomaly)
		metrics.RecordTicks(metrics.TickClipped, r.TOI.Clipped)
		if r.TOI.Clipped > 0 {
			log.Warn(ctx, "shift ticks outside the game clipped",
				logger.Int("game_id", g.ID), logger.Int("clipped", r.TOI.Clipped))
		}

		rep.Ticks.add(r.TOI)
		rep.toi = append(rep.toi, r.TOI)
	}
}

func (s *Service) write(ctx context.Context, sink Sink, rep *Report) error {
	start := time.Now()
	err := sink.Write(ctx, rep.Result)
	metrics.RecordSinkLatency(sink.Name(), float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSinkError(sink.Name())
		return fmt.Errorf("write to %s sink: %w", sink.Name(), err)
	}
	metrics.RecordRowsWritten(sink.Name(), model.PlayerTOITable, len(rep.Result.Players))
	metrics.RecordRowsWritten(sink.Name(), model.TeamTOITable, len(rep.Result.Teams))
	rep.Sink = sink.Name()
	return nil
}

func (s *Service) remember(rep *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.last = rep
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, timeline.ErrNoShifts):
		return "no_shifts"
	case errors.Is(err, timeline.ErrTeamCount):
		return "team_count"
	case errors.Is(err, model.ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, worker.ErrPanic):
		return "panic"
	default:
		return "error"
	}
}

// LastReport returns the report of the most recent run, or nil.
func (s *Service) LastReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"runs":        s.runs,
	}
	if s.sink != nil {
		stats["sink"] = s.sink.Name()
	}
	if s.last != nil {
		stats["lastRun"] = s.last.Summary()
	}
	return stats
}
