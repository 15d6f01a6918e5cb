// Package prometheus exports task queue activity to Prometheus.
//
// [Exporter] implements taskqueue.Observer, and is attached per queue with
// taskqueue.WithObserver. [SnapshotCollector] complements it, reading
// taskqueue.Metrics snapshots at scrape time.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/io-fault/python-sub002/taskqueue"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// DurationBuckets are the drain duration histogram buckets, in seconds.
	// Defaults to prom.DefBuckets.
	DurationBuckets []float64
}

// Exporter adapts taskqueue.Observer to Prometheus collectors. Every series
// is labelled by queue name. A nil *Exporter discards everything.
type Exporter struct {
	drainDurationSeconds *prom.HistogramVec
	tasksExecutedTotal   *prom.CounterVec
	taskFailuresTotal    *prom.CounterVec
	handlerFailuresTotal *prom.CounterVec
	rejectedTotal        *prom.CounterVec
	queueDepth           *prom.GaugeVec
}

var _ taskqueue.Observer = (*Exporter)(nil)

// NewExporter creates and registers the exporter's collectors. A nil reg
// selects prom.DefaultRegisterer. Exporters sharing a registry and namespace
// share collectors.
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "taskqueue"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	drainVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "drain_duration_seconds",
		Help:      "Duration of each queue drain in seconds.",
		Buckets:   buckets,
	}, []string{"queue"})
	executedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_executed_total",
		Help:      "Total number of tasks invoked by drains.",
	}, []string{"queue"})
	failuresVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_failures_total",
		Help:      "Total number of failed tasks, by outcome.",
	}, []string{"queue", "outcome"})
	handlerVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "handler_failures_total",
		Help:      "Total number of error handler failures.",
	}, []string{"queue"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "enqueue_rejected_total",
		Help:      "Total number of rejected enqueues, by reason.",
	}, []string{"queue", "reason"})
	depthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "depth",
		Help:      "Tasks pending after the most recent drain.",
	}, []string{"queue"})

	var err error
	if drainVec, err = registerCollector(reg, drainVec); err != nil {
		return nil, err
	}
	if executedVec, err = registerCollector(reg, executedVec); err != nil {
		return nil, err
	}
	if failuresVec, err = registerCollector(reg, failuresVec); err != nil {
		return nil, err
	}
	if handlerVec, err = registerCollector(reg, handlerVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if depthVec, err = registerCollector(reg, depthVec); err != nil {
		return nil, err
	}

	return &Exporter{
		drainDurationSeconds: drainVec,
		tasksExecutedTotal:   executedVec,
		taskFailuresTotal:    failuresVec,
		handlerFailuresTotal: handlerVec,
		rejectedTotal:        rejectedVec,
		queueDepth:           depthVec,
	}, nil
}

// ObserveDrain records the drain duration and the tasks it invoked.
func (x *Exporter) ObserveDrain(queue string, executed, failed int, duration time.Duration) {
	if x == nil {
		return
	}
	queue = normalizeLabel(queue, "default")
	x.drainDurationSeconds.WithLabelValues(queue).Observe(duration.Seconds())
	x.tasksExecutedTotal.WithLabelValues(queue).Add(float64(executed))
}

// ObserveTaskFailure counts a failed task.
func (x *Exporter) ObserveTaskFailure(queue string, outcome string) {
	if x == nil {
		return
	}
	x.taskFailuresTotal.WithLabelValues(normalizeLabel(queue, "default"), normalizeLabel(outcome, "unknown")).Inc()
}

// ObserveHandlerFailure counts an error handler failure.
func (x *Exporter) ObserveHandlerFailure(queue string) {
	if x == nil {
		return
	}
	x.handlerFailuresTotal.WithLabelValues(normalizeLabel(queue, "default")).Inc()
}

// ObserveRejected counts a rejected enqueue.
func (x *Exporter) ObserveRejected(queue string, reason string) {
	if x == nil {
		return
	}
	x.rejectedTotal.WithLabelValues(normalizeLabel(queue, "default"), normalizeLabel(reason, "unknown")).Inc()
}

// ObserveDepth sets the depth gauge.
func (x *Exporter) ObserveDepth(queue string, depth int) {
	if x == nil {
		return
	}
	x.queueDepth.WithLabelValues(normalizeLabel(queue, "default")).Set(float64(depth))
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
