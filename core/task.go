package core

import (
	"context"
	"fmt"
)

// RowTask is a half-open span [Start, End) of raster rows handed to one worker.
// Tasks are created by Partition, never modified, and consumed exactly once.
type RowTask struct {
	Start int
	End   int

	terminate bool
}

// TerminateTask returns the marker that tells a worker to exit its loop.
func TerminateTask() RowTask {
	return RowTask{Start: -1, End: -1, terminate: true}
}

// IsTerminate reports whether t is the terminate marker.
func (t RowTask) IsTerminate() bool { return t.terminate }

// Rows returns the number of rows covered by t.
func (t RowTask) Rows() int {
	if t.terminate {
		return 0
	}
	return t.End - t.Start
}

func (t RowTask) String() string {
	if t.terminate {
		return "terminate"
	}
	return fmt.Sprintf("[%d,%d)", t.Start, t.End)
}

// RowFunc processes the rows of one task. Implementations must only write the
// output rows belonging to task; that is what lets workers run without locks
// on the raster data.
type RowFunc func(ctx context.Context, task RowTask) error
