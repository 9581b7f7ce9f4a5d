package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling row function panics
// =============================================================================

// PanicHandler is called when a row function panics during execution.
// The panic is still converted into a WorkerFailure afterwards; the handler
// only observes it.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a row function panics.
	//
	// Parameters:
	// - ctx: The context of the run
	// - poolName: The name of the worker pool where the panic occurred
	// - workerID: The ID of the worker goroutine
	// - task: The row range being processed
	// - panicInfo: The panic value recovered from the row function
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolName string, workerID int, task RowTask, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs the panic through a Logger.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs panic information at error level.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, task RowTask, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("row function panicked",
		F("pool", poolName),
		F("worker", workerID),
		F("rows", task.String()),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting row task metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting worker throughput.
type Metrics interface {
	// RecordTaskDuration records how long one row task took to execute.
	RecordTaskDuration(poolName string, rows int, duration time.Duration)

	// RecordTaskPanic records that a row function panicked.
	RecordTaskPanic(poolName string, panicInfo any)

	// RecordQueueDepth records the current depth of the bounded task queue.
	RecordQueueDepth(poolName string, depth int)

	// RecordWorkerFailure records a failed row task.
	RecordWorkerFailure(poolName string, task RowTask)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(poolName string, rows int, duration time.Duration) {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(poolName string, panicInfo any) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(poolName string, depth int) {}

// RecordWorkerFailure is a no-op.
func (m *NilMetrics) RecordWorkerFailure(poolName string, task RowTask) {}

// =============================================================================
// SchedulerConfig: Configuration for RowScheduler and the worker pool
// =============================================================================

// SchedulerConfig holds configuration options for a processing run.
// All handlers are optional; if not provided, default implementations will be used.
type SchedulerConfig struct {
	// QueueCapacity bounds the task queue. Zero sizes the queue to hold every
	// task plus one terminate marker per worker.
	QueueCapacity int

	// PanicHandler is called when a row function panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// Logger receives lifecycle and failure logs. Defaults to NoOpLogger.
	Logger Logger
}

// DefaultSchedulerConfig returns a config with default handlers.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PanicHandler: &DefaultPanicHandler{},
		Metrics:      &NilMetrics{},
		Logger:       NewNoOpLogger(),
	}
}

// withDefaults returns a copy of c with every nil handler replaced.
func (c *SchedulerConfig) withDefaults() SchedulerConfig {
	var out SchedulerConfig
	if c != nil {
		out = *c
	}
	if out.Logger == nil {
		out.Logger = NewNoOpLogger()
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{Logger: out.Logger}
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	return out
}
