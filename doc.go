// Package rasterrunner processes grayscale rasters in parallel row ranges.
//
// The coordination layer lives in the core package: a FIFO Mutex with owner
// tokens, a FIFO CountingSemaphore, a BoundedQueue built from the two, and a
// one-shot CompletionCoordinator. This package builds the worker pool on top
// of them.
//
// # Quick Start
//
//	pool := rasterrunner.NewGoroutineWorkerPool("filter", 4, nil)
//	out, err := rasterrunner.ProcessRaster(ctx, pool, img, raster.FilterSpec{
//		Mode: raster.FilterNegative,
//	})
//
// # Runs
//
// Each GoroutineWorkerPool.Run call partitions the rows into at most one task
// per worker, pushes the tasks through a bounded queue, waits for the
// completion coordinator and then hands every worker exactly one terminate
// marker. All workers are joined before Run returns. The first failing row
// range is returned as a *WorkerFailure; the remaining tasks are drained
// without running the row function and nothing is retried.
//
// # Thread Safety
//
// Row tasks are pairwise disjoint, so a row function may write its own output
// rows without locking. Only the queue and coordinator metadata are shared.
//
// Moving rasters between processes is handled by the protocol package, and
// the orchestrator package wires producer, consumer and named channel together.
package rasterrunner
