package rasterrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-raster-runner/core"
)

func TestGoroutineWorkerPool_Lifecycle(t *testing.T) {
	pool := NewGoroutineWorkerPool("test-pool", 2, nil)

	if pool.ID() != "test-pool" {
		t.Errorf("expected ID 'test-pool', got %s", pool.ID())
	}
	if pool.WorkerCount() != 2 {
		t.Errorf("expected 2 workers, got %d", pool.WorkerCount())
	}
	if pool.IsRunning() {
		t.Error("pool should not be running initially")
	}

	if err := pool.Run(context.Background(), 8, func(ctx context.Context, task RowTask) error { return nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if pool.IsRunning() {
		t.Error("pool should not be running after Run returns")
	}
	stats := pool.Stats()
	if stats.Completed != 2 || stats.Remaining != 0 || stats.Failed {
		t.Errorf("unexpected stats after run: %+v", stats)
	}
}

// TestGoroutineWorkerPool_CoversEveryRowOnce verifies the row split end to end
// Given: A pool of W workers and a raster of H rows
// When: Run executes a function that marks every row it sees
// Then: Each row is visited exactly once for every (H, W) combination
func TestGoroutineWorkerPool_CoversEveryRowOnce(t *testing.T) {
	for _, h := range []int{1, 2, 3, 4, 7, 16, 33} {
		for _, w := range []int{1, 2, 3, 4, 8} {
			pool := NewGoroutineWorkerPool("cover", w, nil)
			visits := make([]int32, h)

			err := pool.Run(context.Background(), h, func(ctx context.Context, task RowTask) error {
				for r := task.Start; r < task.End; r++ {
					atomic.AddInt32(&visits[r], 1)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("H=%d W=%d: Run: %v", h, w, err)
			}
			for r, n := range visits {
				if n != 1 {
					t.Fatalf("H=%d W=%d: row %d visited %d times", h, w, r, n)
				}
			}
		}
	}
}

func TestGoroutineWorkerPool_ZeroHeight(t *testing.T) {
	pool := NewGoroutineWorkerPool("empty", 4, nil)
	called := false

	err := pool.Run(context.Background(), 0, func(ctx context.Context, task RowTask) error {
		called = true
		return nil
	})

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("row function called for a zero-height raster")
	}
}

func TestGoroutineWorkerPool_InvalidWorkerCount(t *testing.T) {
	pool := NewGoroutineWorkerPool("bad", 0, nil)
	if err := pool.Run(context.Background(), 4, func(ctx context.Context, task RowTask) error { return nil }); err == nil {
		t.Error("expected error for zero workers")
	}
}

// TestGoroutineWorkerPool_WorkerFailure verifies failure propagation
// Given: A row function that fails on the task starting at row 2
// When: Run executes over 4 rows with 2 workers
// Then: Run returns a WorkerFailure naming that range and every worker exits
func TestGoroutineWorkerPool_WorkerFailure(t *testing.T) {
	// Arrange
	boom := errors.New("disk on fire")
	pool := NewGoroutineWorkerPool("fail", 2, nil)

	// Act
	err := pool.Run(context.Background(), 4, func(ctx context.Context, task RowTask) error {
		if task.Start == 2 {
			return boom
		}
		return nil
	})

	// Assert
	var wf *WorkerFailure
	if !errors.As(err, &wf) {
		t.Fatalf("error = %v, want *WorkerFailure", err)
	}
	if wf.Task.Start != 2 || wf.Task.End != 4 {
		t.Errorf("failed task = %v, want [2,4)", wf.Task)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the row function error", err)
	}
	if pool.IsRunning() {
		t.Error("pool still running after failed run")
	}
	if !pool.Stats().Failed {
		t.Error("stats do not report the failure")
	}
}

// TestGoroutineWorkerPool_PanicBecomesFailure verifies panic recovery
// Given: A row function that panics and a recording panic handler
// When: Run executes
// Then: Run returns a WorkerFailure wrapping ErrPanic and the handler saw the panic
func TestGoroutineWorkerPool_PanicBecomesFailure(t *testing.T) {
	// Arrange
	handler := &countingPanicHandler{}
	pool := NewGoroutineWorkerPool("panic", 2, &SchedulerConfig{PanicHandler: handler})

	// Act
	err := pool.Run(context.Background(), 4, func(ctx context.Context, task RowTask) error {
		if task.Start == 0 {
			panic("bad row")
		}
		return nil
	})

	// Assert
	var wf *WorkerFailure
	if !errors.As(err, &wf) {
		t.Fatalf("error = %v, want *WorkerFailure", err)
	}
	if !errors.Is(err, core.ErrPanic) {
		t.Errorf("error %v does not wrap ErrPanic", err)
	}
	if handler.count.Load() != 1 {
		t.Errorf("panic handler called %d times, want 1", handler.count.Load())
	}

	history := pool.LastRunHistory()
	panicked := 0
	for _, rec := range history {
		if rec.Panicked {
			panicked++
		}
	}
	if panicked != 1 {
		t.Errorf("history records %d panics, want 1", panicked)
	}
}

// TestGoroutineWorkerPool_CanceledContext verifies cancellation before execution
func TestGoroutineWorkerPool_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := NewGoroutineWorkerPool("canceled", 2, nil)

	err := pool.Run(ctx, 4, func(ctx context.Context, task RowTask) error {
		t.Error("row function ran on a canceled context")
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestGoroutineWorkerPool_Busy verifies that runs do not overlap
// Given: A run blocked inside its row function
// When: A second Run is attempted on the same pool
// Then: The second call returns ErrPoolBusy
func TestGoroutineWorkerPool_Busy(t *testing.T) {
	pool := NewGoroutineWorkerPool("busy", 1, nil)
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = pool.Run(context.Background(), 1, func(ctx context.Context, task RowTask) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if !pool.IsRunning() {
		t.Error("IsRunning = false during run")
	}
	if stats := pool.Stats(); stats.Active != 1 {
		t.Errorf("active = %d, want 1", stats.Active)
	}
	err := pool.Run(context.Background(), 1, func(ctx context.Context, task RowTask) error { return nil })
	if !errors.Is(err, ErrPoolBusy) {
		t.Errorf("second Run = %v, want ErrPoolBusy", err)
	}

	close(release)
	wg.Wait()
}

// TestGoroutineWorkerPool_SmallQueueBackPressure verifies a capacity-1 queue
// Given: A queue holding a single task and more tasks than slots
// When: Run executes
// Then: Every task completes without deadlock
func TestGoroutineWorkerPool_SmallQueueBackPressure(t *testing.T) {
	pool := NewGoroutineWorkerPool("tight", 8, &SchedulerConfig{QueueCapacity: 1})
	var rows atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- pool.Run(context.Background(), 64, func(ctx context.Context, task RowTask) error {
			rows.Add(int32(task.Rows()))
			time.Sleep(time.Millisecond)
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run deadlocked with a capacity-1 queue")
	}
	if rows.Load() != 64 {
		t.Errorf("rows processed = %d, want 64", rows.Load())
	}
}

// TestGoroutineWorkerPool_Reusable verifies sequential runs on one pool
func TestGoroutineWorkerPool_Reusable(t *testing.T) {
	pool := NewGoroutineWorkerPool("reuse", 3, nil)
	for i := 0; i < 3; i++ {
		var count atomic.Int32
		if err := pool.Run(context.Background(), 9, func(ctx context.Context, task RowTask) error {
			count.Add(int32(task.Rows()))
			return nil
		}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if count.Load() != 9 {
			t.Errorf("run %d: rows = %d, want 9", i, count.Load())
		}
		if len(pool.LastRunHistory()) != 3 {
			t.Errorf("run %d: history = %d records, want 3", i, len(pool.LastRunHistory()))
		}
	}
}

// TestGoroutineWorkerPool_Metrics verifies metric callbacks
func TestGoroutineWorkerPool_Metrics(t *testing.T) {
	m := &recordingMetrics{}
	pool := NewGoroutineWorkerPool("metrics", 2, &SchedulerConfig{Metrics: m})

	err := pool.Run(context.Background(), 6, func(ctx context.Context, task RowTask) error {
		if task.Start == 3 {
			return errors.New("fail")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures != 1 {
		t.Errorf("failures = %d, want 1", m.failures)
	}
	if m.durations != 1 || m.rows != 3 {
		t.Errorf("durations = %d rows = %d, want 1 and 3", m.durations, m.rows)
	}
}

type countingPanicHandler struct {
	count atomic.Int32
}

func (h *countingPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, task RowTask, panicInfo any, stack []byte) {
	h.count.Add(1)
}

type recordingMetrics struct {
	core.NilMetrics
	mu        sync.Mutex
	durations int
	rows      int
	failures  int
}

func (m *recordingMetrics) RecordTaskDuration(poolName string, rows int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations++
	m.rows += rows
}

func (m *recordingMetrics) RecordWorkerFailure(poolName string, task RowTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}
