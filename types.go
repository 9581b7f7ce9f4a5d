package rasterrunner

import "github.com/Swind/go-raster-runner/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the rasterrunner package for most use cases.

// RowTask is a half-open span of raster rows handed to one worker
type RowTask = core.RowTask

// RowFunc processes the rows of one task
type RowFunc = core.RowFunc

// SchedulerConfig configures queue capacity, handlers, metrics and logging of a run
type SchedulerConfig = core.SchedulerConfig

// WorkerFailure is returned when a row function fails on some row range
type WorkerFailure = core.WorkerFailure

// PoolStats is a snapshot of a worker pool
type PoolStats = core.PoolStats

// Logger is the structured logging interface used throughout the module
type Logger = core.Logger

// Convenience functions re-exported from core
var (
	DefaultSchedulerConfig = core.DefaultSchedulerConfig
	Partition              = core.Partition
)
