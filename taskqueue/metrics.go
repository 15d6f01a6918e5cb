package taskqueue

import (
	"errors"
	"sync"
	"time"
)

// Metrics is a point-in-time snapshot of queue statistics, see Queue.Metrics.
//
// Example:
//
//	q, _ := taskqueue.New(taskqueue.WithMetrics(true))
//	_, _ = q.Drain(nil)
//	m := q.Metrics()
//	fmt.Printf("executed: %d, P99 task latency: %v\n", m.Executed, m.Latency.P99)
type Metrics struct {
	// Latency is the distribution of task run times.
	Latency LatencyMetrics

	// Depth tracks the pending task count, sampled after each drain.
	Depth DepthMetrics

	// Segments tracks the allocator.
	Segments SegmentMetrics

	Drains          int64
	Executed        int64
	Failed          int64
	Panicked        int64
	HandlerFailures int64
	Rejected        int64
}

// LatencyMetrics summarises task run times.
type LatencyMetrics struct {
	P50  time.Duration
	P90  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// DepthMetrics summarises the pending task count.
type DepthMetrics struct {
	Current int
	Max     int
	// Avg is an exponential moving average with alpha=0.1, initialized to
	// the first observed value.
	Avg float64
}

// SegmentMetrics summarises segment allocation.
type SegmentMetrics struct {
	Live        int64
	Allocated   int64
	Released    int64
	AllocFailed int64
}

// queueMetrics accumulates Metrics.
//
// Thread Safety: all methods are safe for concurrent use.
type queueMetrics struct { // betteralign:ignore
	mu sync.Mutex

	p50, p90, p95, p99 *streamQuantile
	latencyCount       int64
	latencySum         time.Duration
	latencyMax         time.Duration

	depth          DepthMetrics
	depthObserved  bool
	drains         int64
	executed       int64
	failed         int64
	panicked       int64
	handlerFailure int64
	rejected       int64
}

func newQueueMetrics() *queueMetrics {
	return &queueMetrics{
		p50: newStreamQuantile(0.50),
		p90: newStreamQuantile(0.90),
		p95: newStreamQuantile(0.95),
		p99: newStreamQuantile(0.99),
	}
}

func (m *queueMetrics) recordTask(d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	x := float64(d)
	for _, q := range [...]*streamQuantile{m.p50, m.p90, m.p95, m.p99} {
		q.observe(x)
	}
	m.latencyCount++
	m.latencySum += d
	if d > m.latencyMax {
		m.latencyMax = d
	}

	m.executed++
	if err != nil {
		m.failed++
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			m.panicked++
		}
	}
}

func (m *queueMetrics) recordDrain(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drains++
	m.depth.Current = depth
	if depth > m.depth.Max {
		m.depth.Max = depth
	}
	if !m.depthObserved {
		m.depth.Avg = float64(depth)
		m.depthObserved = true
	} else {
		m.depth.Avg = 0.9*m.depth.Avg + 0.1*float64(depth)
	}
}

func (m *queueMetrics) recordHandlerFailure() {
	m.mu.Lock()
	m.handlerFailure++
	m.mu.Unlock()
}

func (m *queueMetrics) recordRejected() {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func (m *queueMetrics) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Metrics{
		Depth:           m.depth,
		Drains:          m.drains,
		Executed:        m.executed,
		Failed:          m.failed,
		Panicked:        m.panicked,
		HandlerFailures: m.handlerFailure,
		Rejected:        m.rejected,
	}
	if m.latencyCount > 0 {
		s.Latency = LatencyMetrics{
			P50:  time.Duration(m.p50.value()),
			P90:  time.Duration(m.p90.value()),
			P95:  time.Duration(m.p95.value()),
			P99:  time.Duration(m.p99.value()),
			Max:  m.latencyMax,
			Mean: m.latencySum / time.Duration(m.latencyCount),
		}
	}
	return s
}

// Metrics returns a snapshot of the queue's statistics. Segment statistics
// are always available, the rest are zero unless WithMetrics(true) was set.
func (q *Queue) Metrics() Metrics {
	var s Metrics
	if q.metrics != nil {
		s = q.metrics.snapshot()
	}
	s.Segments = SegmentMetrics{
		Live:        q.alloc.live.Load(),
		Allocated:   q.alloc.allocs.Load(),
		Released:    q.alloc.releases.Load(),
		AllocFailed: q.alloc.failures.Load(),
	}
	return s
}
