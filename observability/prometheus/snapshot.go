package prometheus

import (
	"sync"

	"github.com/io-fault/python-sub002/taskqueue"
	prom "github.com/prometheus/client_golang/prometheus"
)

// MetricsProvider is satisfied by *taskqueue.Queue.
type MetricsProvider interface {
	Name() string
	Metrics() taskqueue.Metrics
}

// SnapshotCollector exports taskqueue.Metrics snapshots of a set of queues,
// read at scrape time: segment allocator state, and, for queues created with
// taskqueue.WithMetrics(true), task latency quantiles.
type SnapshotCollector struct {
	mu     sync.RWMutex
	queues map[string]MetricsProvider

	segmentsLive        *prom.Desc
	segmentsAllocated   *prom.Desc
	segmentsReleased    *prom.Desc
	segmentsAllocFailed *prom.Desc
	taskLatency         *prom.Desc
	depthMax            *prom.Desc
}

var _ prom.Collector = (*SnapshotCollector)(nil)

// NewSnapshotCollector creates a collector and registers it with reg. A nil
// reg selects prom.DefaultRegisterer.
func NewSnapshotCollector(namespace string, reg prom.Registerer) (*SnapshotCollector, error) {
	if namespace == "" {
		namespace = "taskqueue"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	labels := []string{"queue"}
	c := &SnapshotCollector{
		queues: make(map[string]MetricsProvider),
		segmentsLive: prom.NewDesc(prom.BuildFQName(namespace, "segments", "live"),
			"Segments currently held by the queue.", labels, nil),
		segmentsAllocated: prom.NewDesc(prom.BuildFQName(namespace, "segments", "allocated_total"),
			"Total segments allocated.", labels, nil),
		segmentsReleased: prom.NewDesc(prom.BuildFQName(namespace, "segments", "released_total"),
			"Total segments released.", labels, nil),
		segmentsAllocFailed: prom.NewDesc(prom.BuildFQName(namespace, "segments", "alloc_failed_total"),
			"Total segment allocations refused by the budget.", labels, nil),
		taskLatency: prom.NewDesc(prom.BuildFQName(namespace, "task", "latency_seconds"),
			"Estimated task run time quantiles.", labels, nil),
		depthMax: prom.NewDesc(prom.BuildFQName(namespace, "depth", "max"),
			"Maximum tasks pending after a drain.", labels, nil),
	}
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Add starts exporting the queue's snapshots, replacing any queue with the
// same name.
func (c *SnapshotCollector) Add(q MetricsProvider) {
	c.mu.Lock()
	c.queues[normalizeLabel(q.Name(), "default")] = q
	c.mu.Unlock()
}

// Remove stops exporting the named queue.
func (c *SnapshotCollector) Remove(name string) {
	c.mu.Lock()
	delete(c.queues, normalizeLabel(name, "default"))
	c.mu.Unlock()
}

// Describe implements prom.Collector.
func (c *SnapshotCollector) Describe(ch chan<- *prom.Desc) {
	ch <- c.segmentsLive
	ch <- c.segmentsAllocated
	ch <- c.segmentsReleased
	ch <- c.segmentsAllocFailed
	ch <- c.taskLatency
	ch <- c.depthMax
}

// Collect implements prom.Collector.
func (c *SnapshotCollector) Collect(ch chan<- prom.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, q := range c.queues {
		m := q.Metrics()
		ch <- prom.MustNewConstMetric(c.segmentsLive, prom.GaugeValue, float64(m.Segments.Live), name)
		ch <- prom.MustNewConstMetric(c.segmentsAllocated, prom.CounterValue, float64(m.Segments.Allocated), name)
		ch <- prom.MustNewConstMetric(c.segmentsReleased, prom.CounterValue, float64(m.Segments.Released), name)
		ch <- prom.MustNewConstMetric(c.segmentsAllocFailed, prom.CounterValue, float64(m.Segments.AllocFailed), name)
		ch <- prom.MustNewConstMetric(c.depthMax, prom.GaugeValue, float64(m.Depth.Max), name)
		if m.Executed > 0 {
			ch <- prom.MustNewConstSummary(c.taskLatency,
				uint64(m.Executed),
				m.Latency.Mean.Seconds()*float64(m.Executed),
				map[float64]float64{
					0.5:  m.Latency.P50.Seconds(),
					0.9:  m.Latency.P90.Seconds(),
					0.95: m.Latency.P95.Seconds(),
					0.99: m.Latency.P99.Seconds(),
				},
				name,
			)
		}
	}
}
