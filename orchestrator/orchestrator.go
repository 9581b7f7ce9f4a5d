// Package orchestrator runs the producer and consumer execution contexts and
// owns the lifetime of the named channel between them.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	rasterrunner "github.com/Swind/go-raster-runner"
	"github.com/Swind/go-raster-runner/config"
	"github.com/Swind/go-raster-runner/core"
	"github.com/Swind/go-raster-runner/protocol"
	"github.com/Swind/go-raster-runner/raster"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options carries the ambient collaborators shared by both contexts.
type Options struct {
	Logger  core.Logger
	Metrics core.Metrics

	// PoolObserver, when set, is called with the consumer's worker pool
	// before its run starts (e.g. to register it with a snapshot poller).
	PoolObserver func(*rasterrunner.GoroutineWorkerPool)
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = core.NewNoOpLogger()
	}
	if o.Metrics == nil {
		o.Metrics = &core.NilMetrics{}
	}
	return o
}

// EnsureChannel makes sure a named channel exists at path, creating it if
// needed and reusing an existing one. Any other kind of file at path is an error.
func EnsureChannel(path string) (created bool, err error) {
	ok, err := protocol.IsChannel(path)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if _, err := os.Lstat(path); err == nil {
		return false, &core.IOError{Op: "create channel", Path: path, Err: errors.New("path exists and is not a named pipe")}
	}
	if err := protocol.MakeChannel(path); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveChannel deletes the channel. Failure is logged as a warning and never
// returned: it must not change the outcome of a run.
func RemoveChannel(path string, logger core.Logger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove channel", core.F("channel", path), core.F("error", err))
	}
}

// Orchestrator runs one producer and one consumer over a shared channel.
type Orchestrator struct {
	cfg  config.RunConfig
	opts Options
}

// New creates an Orchestrator.
func New(cfg config.RunConfig, opts Options) *Orchestrator {
	return &Orchestrator{cfg: cfg, opts: opts.withDefaults()}
}

// Run creates (or reuses) the channel, runs both contexts concurrently,
// verifies the output raster exists and removes the channel on every exit path.
//
// The input raster is loaded and the consumer configuration validated before
// either context touches the channel, so a bad argument can never leave the
// other side blocked in the rendezvous.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.cfg.Validate(); err != nil {
		return err
	}
	runID := uuid.NewString()
	logger := core.WithFields(o.opts.Logger, core.F("run_id", runID))
	opts := o.opts
	opts.Logger = logger

	img, err := raster.LoadPGM(o.cfg.Producer.InputPath)
	if err != nil {
		return err
	}

	path := o.cfg.Producer.ChannelPath
	created, err := EnsureChannel(path)
	if err != nil {
		return err
	}
	defer RemoveChannel(path, logger)
	logger.Debug("channel ready", core.F("channel", path), core.F("created", created))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := Stream(gctx, path, img, opts); err != nil {
			return fmt.Errorf("producer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := Consume(gctx, o.cfg.Consumer, opts); err != nil {
			return fmt.Errorf("consumer: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return verifyOutput(o.cfg.Consumer.OutputPath)
}

func verifyOutput(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return &core.IOError{Op: "verify output", Path: path, Err: err}
	}
	if !st.Mode().IsRegular() || st.Size() == 0 {
		return &core.IOError{Op: "verify output", Path: path, Err: errors.New("output raster is missing or empty")}
	}
	return nil
}
