package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/icetime/internal/adapters/mq/queue"
	"github.com/okian/icetime/internal/adapters/mq/worker"
	"github.com/okian/icetime/internal/domain/model"
	"github.com/okian/icetime/internal/domain/toi"
	logging "github.com/okian/icetime/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var errBadGame = errors.New("bad game")

type results struct {
	mu  sync.Mutex
	all map[int]worker.Result
}

func newResults() *results {
	return &results{all: make(map[int]worker.Result)}
}

func (r *results) Collect(res worker.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all[res.GameID] = res
}

func (r *results) get(id int) (worker.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.all[id]
	return res, ok
}

func (r *results) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

// fakeProcessor fails game 2 and panics on game 3.
var fakeProcessor = worker.ProcessorFunc(func(_ context.Context, g model.Game) (*toi.GameTOI, error) {
	switch g.ID {
	case 2:
		return nil, errBadGame
	case 3:
		var m map[string]int
		m["boom"]++
	}
	return &toi.GameTOI{GameID: g.ID}, nil
})

func TestPool(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a pool over a queue of games", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		collected := newResults()
		pool := worker.NewPool(4, q, fakeProcessor, collected)
		So(pool.Size(), ShouldEqual, 4)

		ctx := context.Background()
		for id := 1; id <= 10; id++ {
			So(q.Enqueue(ctx, model.Game{ID: id}), ShouldBeNil)
		}

		Convey("When the pool drains the closed queue", func() {
			pool.Start(ctx)
			So(q.Close(), ShouldBeNil)
			pool.Wait()

			Convey("Then every game has exactly one result", func() {
				So(collected.len(), ShouldEqual, 10)
				res, ok := collected.get(7)
				So(ok, ShouldBeTrue)
				So(res.Err, ShouldBeNil)
				So(res.TOI.GameID, ShouldEqual, 7)
			})

			Convey("And a failing game does not stop the others", func() {
				res, _ := collected.get(2)
				So(errors.Is(res.Err, errBadGame), ShouldBeTrue)
				So(res.TOI, ShouldBeNil)
			})

			Convey("And a panic is recovered as a failure", func() {
				res, _ := collected.get(3)
				So(errors.Is(res.Err, worker.ErrPanic), ShouldBeTrue)
				So(res.TOI, ShouldBeNil)
			})
		})

		Convey("When shut down", func() {
			pool.Start(ctx)
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			Convey("Then queued games are still processed", func() {
				So(pool.Shutdown(shutdownCtx), ShouldBeNil)
				So(collected.len(), ShouldEqual, 10)
				So(q.IsClosed(), ShouldBeTrue)
			})
		})
	})
}

func TestWorkerCancellation(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a worker on an open queue", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, fakeProcessor, worker.CollectorFunc(func(worker.Result) {}), worker.WithName("w-0"))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		Convey("When the context is cancelled", func() {
			cancel()

			Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					So("worker did not stop", ShouldBeEmpty)
				}
			})
		})
	})
}
