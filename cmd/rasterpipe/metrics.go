package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	rasterrunner "github.com/Swind/go-raster-runner"
	"github.com/Swind/go-raster-runner/core"
	obs "github.com/Swind/go-raster-runner/observability/prometheus"
	"github.com/Swind/go-raster-runner/orchestrator"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func metricsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "metrics-file",
			Usage:   "write Prometheus text metrics to this file when the run ends",
			EnvVars: []string{"RASTERPIPE_METRICS_FILE"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "serve /metrics on this address while the run is in progress",
			EnvVars: []string{"RASTERPIPE_METRICS_ADDR"},
		},
		&cli.IntFlag{
			Name:    "queue-capacity",
			Usage:   "bound the row task queue (0 = tasks + workers)",
			EnvVars: []string{"RASTERPIPE_QUEUE_CAPACITY"},
		},
	}
}

// observability wires the Prometheus exporter and poller into orchestrator
// options. finish must be called once the run is over.
type observability struct {
	reg    *prom.Registry
	poller *obs.SnapshotPoller
	server *http.Server
	file   string
	logger core.Logger
}

func setupObservability(ctx context.Context, c *cli.Context, logger core.Logger) (*observability, orchestrator.Options, error) {
	opts := orchestrator.Options{Logger: logger}
	o := &observability{file: c.String("metrics-file"), logger: logger}
	addr := c.String("metrics-addr")
	if o.file == "" && addr == "" {
		return o, opts, nil
	}

	o.reg = prom.NewRegistry()
	exporter, err := obs.NewMetricsExporter("rasterrunner", o.reg, obs.ExporterOptions{})
	if err != nil {
		return nil, opts, err
	}
	o.poller, err = obs.NewSnapshotPoller(o.reg, 50*time.Millisecond)
	if err != nil {
		return nil, opts, err
	}
	opts.Metrics = exporter
	opts.PoolObserver = func(pool *rasterrunner.GoroutineWorkerPool) {
		o.poller.AddPool(pool.ID(), pool)
	}
	o.poller.Start(ctx)

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(o.reg, promhttp.HandlerOpts{}))
		o.server = &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := o.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", core.F("addr", addr), core.F("error", err))
			}
		}()
	}
	return o, opts, nil
}

func (o *observability) finish() {
	if o.poller != nil {
		o.poller.Stop()
	}
	if o.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = o.server.Shutdown(ctx)
	}
	if o.file != "" && o.reg != nil {
		if err := obs.DumpFile(o.file, o.reg); err != nil {
			o.logger.Warn("failed to write metrics file", core.F("path", o.file), core.F("error", err))
		}
	}
}
