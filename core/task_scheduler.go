package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Partition splits rows [0, height) into at most workers contiguous tasks of
// ceil(height/workers) rows each. The tasks are pairwise disjoint and their
// union is exactly [0, height).
func Partition(height, workers int) ([]RowTask, error) {
	if height < 0 {
		return nil, fmt.Errorf("partition: negative height %d", height)
	}
	if workers < 1 {
		return nil, fmt.Errorf("partition: worker count must be at least 1, got %d", workers)
	}
	if height == 0 {
		return nil, nil
	}

	linesPerTask := (height + workers - 1) / workers
	tasks := make([]RowTask, 0, workers)
	for i := 0; i < workers; i++ {
		start := i * linesPerTask
		if start >= height {
			break
		}
		tasks = append(tasks, RowTask{Start: start, End: min(start+linesPerTask, height)})
	}
	return tasks, nil
}

// RowScheduler coordinates one processing run: it owns the bounded task queue
// and the completion coordinator, and records the first worker failure.
//
// A RowScheduler is built for a single run and discarded afterwards.
type RowScheduler struct {
	name        string
	queue       *BoundedTaskQueue
	completion  *CompletionCoordinator
	workerCount int
	taskCount   int

	metricQueued    int32 // Waiting in the queue
	metricActive    int32 // Executing in a worker
	metricCompleted int32

	// Handlers and Metrics
	panicHandler PanicHandler
	metrics      Metrics
	logger       Logger

	failOnce sync.Once
	failure  error
	failed   chan struct{}
	aborted  atomic.Bool

	historyMu sync.Mutex
	history   []TaskExecutionRecord
}

// NewRowScheduler creates the scheduler for a run of taskCount tasks executed
// by workerCount workers.
func NewRowScheduler(name string, workerCount, taskCount int, config *SchedulerConfig) (*RowScheduler, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("row scheduler: worker count must be at least 1, got %d", workerCount)
	}
	cfg := config.withDefaults()

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = taskCount + workerCount
	}
	queue, err := NewBoundedTaskQueue(capacity)
	if err != nil {
		return nil, err
	}

	return &RowScheduler{
		name:         name,
		queue:        queue,
		completion:   NewCompletionCoordinator(taskCount),
		workerCount:  workerCount,
		taskCount:    taskCount,
		panicHandler: cfg.PanicHandler,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		failed:       make(chan struct{}),
	}, nil
}

// Post enqueues a task, blocking while the queue is full.
func (s *RowScheduler) Post(task RowTask) error {
	atomic.AddInt32(&s.metricQueued, 1)
	if err := s.queue.Enqueue(task); err != nil {
		atomic.AddInt32(&s.metricQueued, -1)
		return err
	}
	s.metrics.RecordQueueDepth(s.name, s.queue.Size())
	return nil
}

// GetWork (Called by Worker). It blocks until a task is available and
// returns false once the worker has been handed its terminate marker.
func (s *RowScheduler) GetWork() (RowTask, bool, error) {
	task, err := s.queue.Dequeue()
	if err != nil {
		return RowTask{}, false, err
	}
	atomic.AddInt32(&s.metricQueued, -1)
	if task.IsTerminate() {
		return task, false, nil
	}
	return task, true, nil
}

// Terminate posts one terminate marker per worker.
func (s *RowScheduler) Terminate() error {
	for i := 0; i < s.workerCount; i++ {
		if err := s.Post(TerminateTask()); err != nil {
			return err
		}
	}
	return nil
}

// TaskCompleted reports one finished (or skipped) task to the coordinator.
func (s *RowScheduler) TaskCompleted() {
	atomic.AddInt32(&s.metricCompleted, 1)
	s.completion.TaskCompleted()
}

// ReportFailure records err if it is the first failure of the run and
// switches the scheduler into abort mode. Later failures are only logged.
func (s *RowScheduler) ReportFailure(failure *WorkerFailure) {
	s.metrics.RecordWorkerFailure(s.name, failure.Task)
	first := false
	s.failOnce.Do(func() {
		first = true
		s.failure = failure
		s.aborted.Store(true)
		close(s.failed)
	})
	if first {
		s.logger.Error("row task failed, aborting run",
			F("pool", s.name), F("worker", failure.Worker), F("rows", failure.Task.String()), F("error", failure.Err))
		return
	}
	s.logger.Warn("additional row task failure",
		F("pool", s.name), F("worker", failure.Worker), F("rows", failure.Task.String()), F("error", failure.Err))
}

// Aborted reports whether a failure has been recorded. Workers drain the
// remaining tasks without executing them once this is true.
func (s *RowScheduler) Aborted() bool { return s.aborted.Load() }

// WaitForCompletion blocks until every task completed or a worker failed,
// whichever happens first, and returns the first failure if there was one.
func (s *RowScheduler) WaitForCompletion() error {
	select {
	case <-s.completion.Done():
	case <-s.failed:
	}
	return s.Failure()
}

// Failure returns the first recorded failure, or nil.
func (s *RowScheduler) Failure() error {
	select {
	case <-s.failed:
		return s.failure
	default:
		return nil
	}
}

// RecordExecution stores the outcome of a task and feeds the metrics.
func (s *RowScheduler) RecordExecution(rec TaskExecutionRecord) {
	if !rec.Failed {
		s.metrics.RecordTaskDuration(s.name, rec.Task.Rows(), rec.Duration)
	}
	s.historyMu.Lock()
	s.history = append(s.history, rec)
	s.historyMu.Unlock()
}

// History returns the execution records of the run in completion order.
func (s *RowScheduler) History() []TaskExecutionRecord {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	out := make([]TaskExecutionRecord, len(s.history))
	copy(out, s.history)
	return out
}

// HandlePanic forwards a recovered panic to the configured handler and metrics.
func (s *RowScheduler) HandlePanic(ctx context.Context, workerID int, task RowTask, panicInfo any, stack []byte) {
	s.metrics.RecordTaskPanic(s.name, panicInfo)
	s.panicHandler.HandlePanic(ctx, s.name, workerID, task, panicInfo, stack)
}

// Metrics
func (s *RowScheduler) Name() string            { return s.name }
func (s *RowScheduler) WorkerCount() int        { return s.workerCount }
func (s *RowScheduler) TaskCount() int          { return s.taskCount }
func (s *RowScheduler) QueueCapacity() int      { return s.queue.Capacity() }
func (s *RowScheduler) QueuedTaskCount() int    { return int(atomic.LoadInt32(&s.metricQueued)) }
func (s *RowScheduler) ActiveTaskCount() int    { return int(atomic.LoadInt32(&s.metricActive)) }
func (s *RowScheduler) CompletedTaskCount() int { return int(atomic.LoadInt32(&s.metricCompleted)) }
func (s *RowScheduler) RemainingTaskCount() int { return s.completion.RemainingCount() }

func (s *RowScheduler) OnTaskStart() {
	atomic.AddInt32(&s.metricActive, 1)
}

func (s *RowScheduler) OnTaskEnd() {
	atomic.AddInt32(&s.metricActive, -1)
}
