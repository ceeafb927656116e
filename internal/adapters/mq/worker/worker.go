// Package worker runs per-game TOI processing on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/internal/domain/toi"
	"github.com/okian/icetime/pkg/logger"
	"github.com/okian/icetime/pkg/metrics"
)

// Job abstracts what workers read off the queue.
type Job = model.Game

// Queue defines how workers receive games.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Processor turns one game into its distributed time on ice.
type Processor interface {
	Process(ctx context.Context, game Job) (*toi.GameTOI, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, game Job) (*toi.GameTOI, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, game Job) (*toi.GameTOI, error) { //nolint:gocritic // hugeParam: jobs travel by value
	return f(ctx, game)
}

// Result is the outcome of one game. Exactly one of TOI and Err is set.
type Result struct {
	GameID  int
	TOI     *toi.GameTOI
	Err     error
	Latency time.Duration
}

// Collector receives results. It is called concurrently from every worker.
type Collector interface {
	Collect(r Result)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(r Result)

// Collect calls f.
func (f CollectorFunc) Collect(r Result) { f(r) }

// InMemoryWorker pulls games off the queue until it is drained or stopped.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	collector Collector
	name      string

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, p Processor, c Collector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		collector: c,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes games until the queue is drained or ctx is done. A game that
// has started always finishes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	metrics.UpdateWorkerActive(1)
	defer metrics.UpdateWorkerActive(-1)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case game, ok := <-jobs:
			if !ok {
				return
			}
			w.collector.Collect(w.process(context.WithoutCancel(ctx), game))
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, game Job) (res Result) { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	res.GameID = game.ID

	defer func() {
		res.Latency = time.Since(start)
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			res.TOI = nil
			res.Err = fmt.Errorf("game %d: %w: %v", game.ID, ErrPanic, r)
			w.logger.Error(ctx, "panic while processing game",
				logger.Int("game_id", game.ID),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()

	g, err := w.processor.Process(ctx, game)
	if err != nil {
		res.Err = err
		w.logger.Warn(ctx, "game skipped", logger.Int("game_id", game.ID), logger.Error(err))
		return res
	}
	res.TOI = g
	return res
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// the number of CPUs.
func NewPool(workerCount int, q Queue, p Processor, c Collector) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(q, p, c, WithName("worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown closes the queue when it can be closed and waits for the workers
// to drain it, bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
