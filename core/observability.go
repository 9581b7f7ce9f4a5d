package core

import "time"

// TaskExecutionRecord captures one finished row task.
type TaskExecutionRecord struct {
	Task       RowTask
	Worker     int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Failed     bool
	Panicked   bool
}

// PoolStats represents runtime observability state for a worker pool.
type PoolStats struct {
	ID        string
	Workers   int
	Queued    int
	Active    int
	Completed int
	Remaining int
	Failed    bool
	Running   bool
}
