package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-raster-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskRowsTotal       *prom.CounterVec
	taskPanicTotal      *prom.CounterVec
	workerFailureTotal  *prom.CounterVec
	queueDepth          *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "rasterrunner"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Row task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"pool"})
	rowsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "rows_processed_total",
		Help:      "Total number of raster rows processed by successful tasks.",
	}, []string{"pool"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of row function panics.",
	}, []string{"pool"})
	failureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "worker_failure_total",
		Help:      "Total number of failed row tasks.",
	}, []string{"pool"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current depth of the bounded task queue.",
	}, []string{"pool"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if rowsVec, err = registerCollector(reg, rowsVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if failureVec, err = registerCollector(reg, failureVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskRowsTotal:       rowsVec,
		taskPanicTotal:      panicVec,
		workerFailureTotal:  failureVec,
		queueDepth:          queueDepthVec,
	}, nil
}

// RecordTaskDuration records row task duration and the rows it covered.
func (m *MetricsExporter) RecordTaskDuration(poolName string, rows int, duration time.Duration) {
	if m == nil {
		return
	}
	pool := normalizeLabel(poolName, "unknown")
	m.taskDurationSeconds.WithLabelValues(pool).Observe(duration.Seconds())
	m.taskRowsTotal.WithLabelValues(pool).Add(float64(rows))
}

// RecordTaskPanic records row function panics.
func (m *MetricsExporter) RecordTaskPanic(poolName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(poolName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(poolName, "unknown")).Set(float64(depth))
}

// RecordWorkerFailure records failed row tasks.
func (m *MetricsExporter) RecordWorkerFailure(poolName string, task core.RowTask) {
	if m == nil {
		return
	}
	m.workerFailureTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
