package orchestrator

import (
	"context"
	"errors"
	"time"

	rasterrunner "github.com/Swind/go-raster-runner"
	"github.com/Swind/go-raster-runner/config"
	"github.com/Swind/go-raster-runner/core"
	"github.com/Swind/go-raster-runner/protocol"
	"github.com/Swind/go-raster-runner/raster"
)

// Consume is the consumer execution context: it receives a raster from the
// channel, filters it with a worker pool and writes the result to
// cfg.OutputPath. Protocol and filter problems are reported before any row
// task is scheduled.
func Consume(ctx context.Context, cfg config.ConsumerConfig, opts Options) (*raster.Image, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	opts.Logger.Info("waiting for producer", core.F("channel", cfg.ChannelPath))
	h, pixels, err := protocol.Receive(ctx, cfg.ChannelPath)
	if err != nil {
		return nil, err
	}

	img, err := raster.FromPixels(int(h.Width), int(h.Height), int(h.MaxSampleValue), pixels)
	if err != nil {
		return nil, &protocol.ProtocolError{Reason: protocol.ReasonInvalidHeader, Detail: err.Error()}
	}
	if err := cfg.Filter.Validate(img.MaxValue); err != nil {
		return nil, err
	}
	opts.Logger.Info("raster received",
		core.F("width", img.Width), core.F("height", img.Height), core.F("max_value", img.MaxValue))

	out, err := Filter(ctx, img, cfg, opts)
	if err != nil {
		return nil, err
	}

	if err := raster.SavePGM(cfg.OutputPath, out); err != nil {
		return nil, err
	}
	opts.Logger.Info("raster written", core.F("path", cfg.OutputPath))
	return out, nil
}

// Filter runs the configured filter over img on a fresh worker pool.
func Filter(ctx context.Context, img *raster.Image, cfg config.ConsumerConfig, opts Options) (*raster.Image, error) {
	opts = opts.withDefaults()

	pool := rasterrunner.NewGoroutineWorkerPool("consumer", cfg.Workers, &core.SchedulerConfig{
		QueueCapacity: cfg.QueueCapacity,
		PanicHandler:  &core.DefaultPanicHandler{Logger: opts.Logger},
		Metrics:       opts.Metrics,
		Logger:        opts.Logger,
	})
	if opts.PoolObserver != nil {
		opts.PoolObserver(pool)
	}

	started := time.Now()
	out, err := rasterrunner.ProcessRaster(ctx, pool, img, cfg.Filter)
	if err != nil {
		var wf *core.WorkerFailure
		if errors.As(err, &wf) {
			opts.Logger.Error("filter aborted", core.F("rows", wf.Task.String()), core.F("error", wf.Err))
		}
		return nil, err
	}
	opts.Logger.Info("filter applied",
		core.F("mode", cfg.Filter.Mode.String()),
		core.F("workers", cfg.Workers),
		core.F("elapsed", time.Since(started).String()))
	return out, nil
}
