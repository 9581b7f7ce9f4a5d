package rasterrunner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Swind/go-raster-runner/core"
	"golang.org/x/sync/errgroup"
)

// ErrPoolBusy is returned by Run when another run is still in progress on the pool.
var ErrPoolBusy = errors.New("worker pool is already running")

// GoroutineWorkerPool runs row tasks on a fixed set of worker goroutines.
//
// Each call to Run builds a fresh RowScheduler (queue, semaphores, completion
// coordinator), starts the workers, feeds them the partitioned tasks and joins
// every worker before returning. Nothing is reused across runs.
type GoroutineWorkerPool struct {
	id      string
	workers int
	config  *core.SchedulerConfig

	runningMu sync.RWMutex
	running   bool
	scheduler *core.RowScheduler
	last      []core.TaskExecutionRecord
}

// NewGoroutineWorkerPool creates a pool with the given number of workers.
// A nil config uses core.DefaultSchedulerConfig.
func NewGoroutineWorkerPool(id string, workers int, config *core.SchedulerConfig) *GoroutineWorkerPool {
	if config == nil {
		config = core.DefaultSchedulerConfig()
	}
	return &GoroutineWorkerPool{
		id:      id,
		workers: workers,
		config:  config,
	}
}

// ID returns the ID of the worker pool
func (p *GoroutineWorkerPool) ID() string {
	return p.id
}

// WorkerCount returns the number of workers started by each run
func (p *GoroutineWorkerPool) WorkerCount() int {
	return p.workers
}

// IsRunning returns whether a run is in progress
func (p *GoroutineWorkerPool) IsRunning() bool {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	return p.running
}

// Stats returns a snapshot of the current (or last) run.
func (p *GoroutineWorkerPool) Stats() core.PoolStats {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()

	stats := core.PoolStats{
		ID:      p.id,
		Workers: p.workers,
		Running: p.running,
	}
	if s := p.scheduler; s != nil {
		stats.Queued = s.QueuedTaskCount()
		stats.Active = s.ActiveTaskCount()
		stats.Completed = s.CompletedTaskCount()
		stats.Remaining = max(s.RemainingTaskCount(), 0)
		stats.Failed = s.Failure() != nil
	}
	return stats
}

// LastRunHistory returns the task execution records of the most recent run.
func (p *GoroutineWorkerPool) LastRunHistory() []core.TaskExecutionRecord {
	p.runningMu.RLock()
	defer p.runningMu.RUnlock()
	out := make([]core.TaskExecutionRecord, len(p.last))
	copy(out, p.last)
	return out
}

// Run partitions rows [0, height) into row tasks and executes fn over every
// task. It returns nil only if every task succeeded; otherwise it returns the
// first *core.WorkerFailure. All workers have exited when Run returns.
func (p *GoroutineWorkerPool) Run(ctx context.Context, height int, fn core.RowFunc) error {
	if p.workers < 1 {
		return fmt.Errorf("worker pool %s: worker count must be at least 1, got %d", p.id, p.workers)
	}
	tasks, err := core.Partition(height, p.workers)
	if err != nil {
		return err
	}
	scheduler, err := core.NewRowScheduler(p.id, p.workers, len(tasks), p.config)
	if err != nil {
		return err
	}

	p.runningMu.Lock()
	if p.running {
		p.runningMu.Unlock()
		return ErrPoolBusy
	}
	p.running = true
	p.scheduler = scheduler
	p.runningMu.Unlock()

	defer func() {
		p.runningMu.Lock()
		p.running = false
		p.last = scheduler.History()
		p.runningMu.Unlock()
	}()

	logger := p.logger()
	logger.Debug("worker pool run starting",
		core.F("pool", p.id), core.F("workers", p.workers), core.F("tasks", len(tasks)),
		core.F("queue_capacity", scheduler.QueueCapacity()))

	var g errgroup.Group
	for i := 0; i < p.workers; i++ {
		workerID := i
		g.Go(func() error {
			return p.workerLoop(ctx, workerID, scheduler, fn)
		})
	}

	// Workers are already draining, so posting never deadlocks on a small queue.
	var postErr error
	for _, task := range tasks {
		if postErr = scheduler.Post(task); postErr != nil {
			break
		}
	}

	var runErr error
	if postErr == nil {
		runErr = scheduler.WaitForCompletion()
	}

	// Every worker sees exactly one terminate marker after its real work.
	termErr := scheduler.Terminate()
	joinErr := g.Wait()

	if err := errors.Join(postErr, termErr, joinErr); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	logger.Debug("worker pool run finished",
		core.F("pool", p.id), core.F("completed", scheduler.CompletedTaskCount()))
	return nil
}

// workerLoop is the main loop for each worker
func (p *GoroutineWorkerPool) workerLoop(ctx context.Context, id int, s *core.RowScheduler, fn core.RowFunc) error {
	for {
		task, ok, err := s.GetWork()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		// Once a failure is recorded the remaining tasks are drained unexecuted.
		if !s.Aborted() {
			if cerr := ctx.Err(); cerr != nil {
				s.ReportFailure(&core.WorkerFailure{Task: task, Worker: id, Err: cerr})
			} else {
				p.execute(ctx, id, s, task, fn)
			}
		}
		s.TaskCompleted()
	}
}

// execute runs fn for one task and captures errors and panics.
func (p *GoroutineWorkerPool) execute(ctx context.Context, id int, s *core.RowScheduler, task core.RowTask, fn core.RowFunc) {
	s.OnTaskStart()
	rec := core.TaskExecutionRecord{Task: task, Worker: id, StartedAt: time.Now()}

	defer func() {
		s.OnTaskEnd()
		if r := recover(); r != nil {
			rec.Panicked = true
			rec.Failed = true
			s.HandlePanic(ctx, id, task, r, debug.Stack())
			s.ReportFailure(&core.WorkerFailure{Task: task, Worker: id, Err: fmt.Errorf("%w: %v", core.ErrPanic, r)})
		}
		rec.FinishedAt = time.Now()
		rec.Duration = rec.FinishedAt.Sub(rec.StartedAt)
		s.RecordExecution(rec)
	}()

	if err := fn(ctx, task); err != nil {
		rec.Failed = true
		s.ReportFailure(&core.WorkerFailure{Task: task, Worker: id, Err: err})
	}
}

func (p *GoroutineWorkerPool) logger() core.Logger {
	if p.config.Logger == nil {
		return core.NewNoOpLogger()
	}
	return p.config.Logger
}
