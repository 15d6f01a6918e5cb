package taskqueue

import (
	"sync"
	"sync/atomic"
)

// Queue is a segmented, double-buffered task queue: the scheduler's run-loop
// work unit.
//
// Tasks are appended to the loading chain by Enqueue, from any goroutine,
// including from within a task being drained. Each Drain detaches the
// executing chain, together with whatever was loaded before it began, and
// runs it in insertion order. Work scheduled during a Drain is rotated into
// the executing role afterwards, and always runs in the following cycle,
// which bounds the work done by a single Drain.
//
// Thread Safety: every method is safe for concurrent use. Structural state is
// guarded by a mutex that is never held while tasks run, so a second Drain
// fails fast with ErrAlreadyDraining rather than waiting.
type Queue struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	mu sync.Mutex

	// executing is the chain to run on the next Drain. nil marks a Drain in
	// progress, emptyChain marks nothing to run.
	executing *segment

	// loading accepts new tasks, tail is the segment being written, cursor
	// the next free slot in tail. loading and tail are nil only after a
	// rotation could not allocate, or after Clear.
	loading *segment
	tail    *segment
	cursor  int

	// pending counts tasks in the loading chain.
	pending int

	// remaining counts tasks in the executing chain not yet invoked.
	remaining atomic.Int64

	closed atomic.Bool

	alloc   *segmentAllocator
	opts    *queueOptions
	metrics *queueMetrics
	id      uint64
}

var queueIDCounter atomic.Uint64

// New initializes a Queue with an empty loading chain and an empty executing
// chain, so Drain is immediately well-defined.
//
// Fails with an error wrapping ErrInvalidOption for bad options, or
// ErrOutOfMemory if the first segment cannot be allocated.
func New(opts ...Option) (*Queue, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		id:    queueIDCounter.Add(1),
		opts:  cfg,
		alloc: newSegmentAllocator(cfg.initialCapacity, cfg.maxCapacity, cfg.segmentBudget),
	}
	if cfg.metricsEnabled {
		q.metrics = newQueueMetrics()
	}

	q.mu.Lock()
	err = q.initLocked()
	q.mu.Unlock()
	if err != nil {
		return nil, err
	}

	q.opts.logger.Debug().
		Uint64(`queue_id`, q.id).
		Str(`queue`, q.opts.name).
		Int(`initial_capacity`, cfg.initialCapacity).
		Int(`max_capacity`, cfg.maxCapacity).
		Log(`task queue initialized`)

	return q, nil
}

// Init re-initializes a queue after Clear. On a queue that is not cleared it
// first releases every pending task, without running them.
//
// Returns ErrAlreadyDraining if a Drain is still in progress.
func (q *Queue) Init() error {
	q.mu.Lock()
	if q.executing == nil {
		q.mu.Unlock()
		return ErrAlreadyDraining
	}
	executing, loading := q.detachLocked()
	q.alloc.releaseChain(executing)
	q.alloc.releaseChain(loading)
	err := q.initLocked()
	q.mu.Unlock()

	if err != nil {
		q.opts.logger.Err().
			Err(err).
			Uint64(`queue_id`, q.id).
			Log(`task queue re-initialization failed`)
		return err
	}
	q.opts.logger.Debug().
		Uint64(`queue_id`, q.id).
		Log(`task queue re-initialized`)
	return nil
}

// initLocked installs a fresh loading segment and the empty executing chain.
// CALLER MUST HOLD q.mu.
func (q *Queue) initLocked() error {
	s, err := q.alloc.alloc(q.opts.initialCapacity)
	if err != nil {
		q.closed.Store(true)
		return err
	}
	q.executing = emptyChain
	q.loading, q.tail, q.cursor, q.pending = s, s, 0, 0
	q.remaining.Store(0)
	q.closed.Store(false)
	return nil
}

// detachLocked empties the queue, returning the chains it held. The executing
// chain is only returned if no Drain owns it.
// CALLER MUST HOLD q.mu.
func (q *Queue) detachLocked() (executing, loading *segment) {
	loading = q.loading
	q.loading, q.tail, q.cursor, q.pending = nil, nil, 0, 0
	if q.executing != nil {
		executing = q.executing
		q.executing = emptyChain
		q.remaining.Store(0)
	}
	return executing, loading
}

// Enqueue appends task to the end of the pending work, to run on a future
// Drain. The queue holds the only reference it needs to task until the task
// is invoked, or released by Clear.
//
// When a write fills the tail segment the next segment is allocated eagerly,
// so the following Enqueue always has room. If that allocation fails,
// Enqueue reports ErrOutOfMemory but the task stays queued, and the queue
// rejects further work with ErrQueueCorrupted until it is drained.
func (q *Queue) Enqueue(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	q.mu.Lock()

	if q.closed.Load() {
		q.mu.Unlock()
		q.rejected(RejectClosed)
		return ErrQueueClosed
	}

	if q.tail == nil {
		s, err := q.alloc.alloc(q.opts.initialCapacity)
		if err != nil {
			q.mu.Unlock()
			q.rejected(RejectOutOfMemory)
			q.opts.logger.Warning().
				Uint64(`queue_id`, q.id).
				Str(`queue`, q.opts.name).
				Log(`task queue could not allocate loading segment`)
			return err
		}
		q.loading, q.tail, q.cursor = s, s, 0
	}

	tail := q.tail
	if q.cursor == len(tail.slots) {
		q.mu.Unlock()
		q.rejected(RejectCorrupted)
		q.opts.logger.Err().
			Err(ErrQueueCorrupted).
			Uint64(`queue_id`, q.id).
			Str(`queue`, q.opts.name).
			Int(`capacity`, len(tail.slots)).
			Log(`task queue rejected task`)
		return ErrQueueCorrupted
	}

	tail.slots[q.cursor] = task
	q.cursor++
	q.pending++

	if q.cursor == len(tail.slots) {
		next, err := q.alloc.alloc(q.alloc.grow(len(tail.slots)))
		if err != nil {
			q.mu.Unlock()
			q.rejected(RejectOutOfMemory)
			q.opts.logger.Warning().
				Uint64(`queue_id`, q.id).
				Str(`queue`, q.opts.name).
				Int(`capacity`, len(tail.slots)).
				Log(`task queue growth failed, drain required`)
			return err
		}
		tail.next = next
		q.tail = next
		q.cursor = 0
	}

	q.mu.Unlock()
	return nil
}

// EnqueueFunc is a convenience for Enqueue(TaskFunc(fn)).
func (q *Queue) EnqueueFunc(fn func() error) error {
	if fn == nil {
		return ErrNilTask
	}
	return q.Enqueue(TaskFunc(fn))
}

// Clear tears the queue down, releasing every task it holds without running
// them and returning every segment to the allocator. Subsequent operations
// fail with ErrQueueClosed until Init is called.
//
// If a Drain is in progress, the chain it detached belongs to that Drain:
// Clear leaves it alone, and the Drain stops before invoking its next task,
// releasing the rest itself.
func (q *Queue) Clear() {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return
	}
	q.closed.Store(true)
	draining := q.executing == nil
	executing, loading := q.detachLocked()
	q.mu.Unlock()

	q.alloc.releaseChain(executing)
	q.alloc.releaseChain(loading)

	q.opts.logger.Debug().
		Uint64(`queue_id`, q.id).
		Str(`queue`, q.opts.name).
		Bool(`draining`, draining).
		Log(`task queue cleared`)
}

// Traverse calls visit for every task held by the queue, executing chain
// first, then the loading chain, each in insertion order. A task is visited
// at most once. Tasks detached by an in-progress Drain are not visited.
//
// Traversal stops at, and returns, the first error returned by visit.
// visit must not call methods of the queue.
func (q *Queue) Traverse(visit func(Task) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for s := q.executing; s != nil; s = s.next {
		for _, t := range s.slots {
			if t == nil {
				continue
			}
			if err := visit(t); err != nil {
				return err
			}
		}
	}

	for s := q.loading; s != nil; s = s.next {
		n := len(s.slots)
		if s == q.tail {
			n = q.cursor
		}
		for _, t := range s.slots[:n] {
			if err := visit(t); err != nil {
				return err
			}
		}
	}

	return nil
}

// Len returns the number of tasks held by the queue and not yet invoked.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending + int(q.remaining.Load())
}

// Draining reports whether a Drain is in progress.
func (q *Queue) Draining() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executing == nil
}

// Closed reports whether the queue has been cleared.
func (q *Queue) Closed() bool {
	return q.closed.Load()
}

// Name returns the name given by WithName.
func (q *Queue) Name() string {
	return q.opts.name
}

func (q *Queue) rejected(reason string) {
	if q.metrics != nil {
		q.metrics.recordRejected()
	}
	if q.opts.observer != nil {
		q.opts.observer.ObserveRejected(q.opts.name, reason)
	}
}
