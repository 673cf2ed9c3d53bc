// Package worker allocates teams concurrently.
//
// Each team is one job. A worker draws the team's numbers from a generator
// seeded by the run seed and the team id, so the outcome of a run does not
// depend on how many workers there are or which one takes a team.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rosterfix/internal/adapters/mq/queue"
	"github.com/okian/rosterfix/internal/domain/allocation"
	"github.com/okian/rosterfix/internal/domain/roster"
	"github.com/okian/rosterfix/pkg/logger"
	"github.com/okian/rosterfix/pkg/metrics"
)

// Allocator computes the numbers of one team.
type Allocator interface {
	Allocate(team []roster.Player, rng allocation.Random) allocation.TeamResult
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Sink receives the result of a job.
type Sink func(seq int, res allocation.TeamResult)

// InMemoryWorker takes jobs off a queue and allocates them.
type InMemoryWorker struct {
	queue     Queue
	allocator Allocator
	sink      Sink
	seed      int64
	name      string

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, allocator Allocator, seed int64, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		allocator: allocator,
		sink:      sink,
		seed:      seed,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run processes jobs until the queue is drained, ctx is canceled or the
// worker is shut down.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	res := w.allocator.Allocate(j.Players, allocation.NewTeamRandom(w.seed, j.Team))
	res.Team = j.Team
	elapsed := time.Since(start)

	metrics.RecordTeamAllocated(float64(elapsed.Microseconds()) / 1000)
	metrics.AddNumbersAssigned(metrics.PassImpact, res.Stats.ImpactAssigned)
	metrics.AddNumbersAssigned(metrics.PassRange, res.Stats.RangeAssigned)
	metrics.AddForcedDuplicates(res.Stats.ForcedDuplicates)
	for pos, n := range unassignedByPosition(res) {
		metrics.AddUnassigned(pos, n)
	}

	if res.Stats.ForcedDuplicates > 0 {
		w.logger.Debug(ctx, "team ran out of free numbers",
			logger.Int("team", j.Team),
			logger.Int("forced_duplicates", res.Stats.ForcedDuplicates),
		)
	}
	w.sink(j.Seq, res)
}

// unassignedByPosition counts the players of positions without a rule.
func unassignedByPosition(res allocation.TeamResult) map[int]int {
	if len(res.Stats.MissingPositions) == 0 {
		return nil
	}
	missing := make(map[int]struct{}, len(res.Stats.MissingPositions))
	for _, pos := range res.Stats.MissingPositions {
		missing[pos] = struct{}{}
	}
	out := make(map[int]int, len(missing))
	for _, p := range res.Players {
		if _, ok := missing[p.Position]; ok {
			out[p.Position]++
		}
	}
	return out
}

// Pool runs a fixed number of workers over the teams of a run.
type Pool struct {
	size      int
	allocator Allocator
	seed      int64
	logger    logger.Logger
}

// NewPool creates a worker pool. A size below 1 uses one worker per CPU.
func NewPool(size int, allocator Allocator, opts ...PoolOption) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:      size,
		allocator: allocator,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	p.logger = p.logger.Named("worker-pool")
	return p
}

// Run allocates every team and returns the results in the order of teams.
func (p *Pool) Run(ctx context.Context, teams []allocation.TeamSlice) ([]allocation.TeamResult, error) {
	if len(teams) == 0 {
		return nil, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(teams)))
	for i, t := range teams {
		if !q.Enqueue(ctx, queue.Job{Seq: i, Team: t.Team, Players: t.Players}) {
			_ = q.Close()
			return nil, fmt.Errorf("%w: team %d", queue.ErrRejected, t.Team)
		}
	}
	if err := q.Close(); err != nil {
		return nil, fmt.Errorf("close queue: %w", err)
	}

	results := make([]allocation.TeamResult, len(teams))
	sink := func(seq int, res allocation.TeamResult) { results[seq] = res }

	n := min(p.size, len(teams))
	metrics.UpdateWorkerCount(n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		w := NewInMemoryWorker(q, p.allocator, p.seed, sink,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		g.Go(func() error {
			w.Run(gctx)
			return gctx.Err()
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		p.logger.Warn(ctx, "allocation interrupted", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStopped, err)
	}

	p.logger.Debug(ctx, "teams allocated",
		logger.Int("teams", len(teams)),
		logger.Int("workers", n),
	)
	return results, nil
}
