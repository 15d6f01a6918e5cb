package taskqueue

import (
	"errors"
	"runtime/debug"

	"github.com/io-fault/python-sub002/clock"
)

// Drain runs every task enqueued before it began exactly once, in insertion
// order, and returns how many were invoked, failed or not.
//
// A failing task never aborts the drain: its failure is passed to handler,
// and the remaining tasks still run. Pass Discard to drop failures silently,
// or nil to report them to the queue's Diagnostics. See ErrorHandler.
//
// Tasks enqueued while Drain runs, including by the tasks themselves, land in
// the loading chain, which is rotated into the executing role once the walk
// completes: they run on the next call, never the current one. Each segment is released as
// soon as it has been consumed.
//
// Returns ErrAlreadyDraining, having run nothing, if another Drain is in
// progress. If the queue is cleared mid-drain, Drain stops before the next
// task and returns the count so far with ErrQueueClosed.
func (q *Queue) Drain(handler ErrorHandler) (int, error) {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return 0, ErrQueueClosed
	}
	chain := q.executing
	if chain == nil {
		q.mu.Unlock()
		return 0, ErrAlreadyDraining
	}
	q.executing = nil
	if q.pending > 0 {
		chain = q.appendLoadingLocked(chain)
	}
	q.mu.Unlock()

	var (
		drainWatch clock.Stopwatch
		timed      = q.metrics != nil || q.opts.observer != nil
		count      int
		failed     int
		cleared    bool
	)
	if timed {
		drainWatch = clock.Start(q.opts.clock)
	}

walk:
	for chain != nil {
		for i, task := range chain.slots {
			if q.closed.Load() {
				cleared = true
				break walk
			}
			// ownership passes to the invocation
			chain.slots[i] = nil
			q.remaining.Add(-1)
			count++

			var err error
			if q.metrics != nil {
				taskWatch := clock.Start(q.opts.clock)
				err = runTask(task)
				q.metrics.recordTask(taskWatch.Elapsed(), err)
			} else {
				err = runTask(task)
			}
			if err != nil {
				failed++
				q.isolate(handler, task, err)
			}
		}
		next := chain.next
		q.alloc.release(chain)
		chain = next
	}

	if cleared {
		q.alloc.releaseChain(chain)
	}

	q.mu.Lock()
	if cleared || q.closed.Load() {
		q.executing = emptyChain
		q.remaining.Store(0)
		q.mu.Unlock()
		q.opts.logger.Debug().
			Uint64(`queue_id`, q.id).
			Int(`executed`, count).
			Log(`task queue drain interrupted by clear`)
		return count, ErrQueueClosed
	}
	rotated := q.pending > 0
	if rotated {
		q.rotateLocked()
	} else {
		q.executing = emptyChain
	}
	depth := q.pending + int(q.remaining.Load())
	q.mu.Unlock()

	if timed {
		elapsed := drainWatch.Elapsed()
		if q.metrics != nil {
			q.metrics.recordDrain(depth)
		}
		if q.opts.observer != nil {
			q.opts.observer.ObserveDrain(q.opts.name, count, failed, elapsed)
			q.opts.observer.ObserveDepth(q.opts.name, depth)
		}
	}

	if count != 0 {
		q.opts.logger.Trace().
			Uint64(`queue_id`, q.id).
			Int(`executed`, count).
			Int(`failed`, failed).
			Bool(`rotated`, rotated).
			Log(`task queue drained`)
	}

	return count, nil
}

// rotateLocked promotes the loading chain to the executing role, for the
// next Drain.
// CALLER MUST HOLD q.mu.
func (q *Queue) rotateLocked() {
	head, n := q.takeLoadingLocked()
	q.executing = head
	q.remaining.Store(int64(n))
}

// appendLoadingLocked links the loading chain onto the end of chain, which
// may be emptyChain, so everything enqueued before a Drain began runs in it.
// CALLER MUST HOLD q.mu.
func (q *Queue) appendLoadingLocked(chain *segment) *segment {
	head, n := q.takeLoadingLocked()
	q.remaining.Add(int64(n))
	if chain == emptyChain {
		return head
	}
	last := chain
	for last.next != nil {
		last = last.next
	}
	last.next = head
	return chain
}

// takeLoadingLocked detaches the loading chain, returning it with its task
// count, and installs a fresh loading segment. The tail segment is frozen to
// its occupied length, so the detached chain can be walked without cursors.
//
// If the fresh segment cannot be allocated the loading slot is left empty,
// and the next Enqueue allocates it.
// CALLER MUST HOLD q.mu, and the loading chain must be non-empty.
func (q *Queue) takeLoadingLocked() (*segment, int) {
	q.tail.slots = q.tail.slots[:q.cursor]
	head, n := q.loading, q.pending
	q.loading, q.tail, q.cursor, q.pending = nil, nil, 0, 0

	s, err := q.alloc.alloc(q.opts.initialCapacity)
	if err != nil {
		q.opts.logger.Warning().
			Err(err).
			Uint64(`queue_id`, q.id).
			Str(`queue`, q.opts.name).
			Log(`task queue deferred loading segment allocation`)
		return head, n
	}
	q.loading, q.tail = s, s
	return head, n
}

// isolate reports a task failure without letting it escape the drain loop.
func (q *Queue) isolate(handler ErrorHandler, task Task, err error) {
	if q.opts.observer != nil {
		outcome := OutcomeError
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			outcome = OutcomePanic
		}
		q.opts.observer.ObserveTaskFailure(q.opts.name, outcome)
	}

	if handler == Discard {
		return
	}

	if handler == nil {
		q.unraisable(task, err, nil)
		return
	}

	if herr := callHandler(handler, task, err); herr != nil {
		if q.metrics != nil {
			q.metrics.recordHandlerFailure()
		}
		if q.opts.observer != nil {
			q.opts.observer.ObserveHandlerFailure(q.opts.name)
		}
		q.unraisable(task, err, herr)
	}
}

// callHandler invokes handler, converting a panic into a *PanicError.
func callHandler(handler ErrorHandler, task Task, err error) (herr error) {
	defer func() {
		if r := recover(); r != nil {
			herr = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return handler.HandleTaskError(task, err)
}

// unraisable hands a failure to the diagnostic sink. A panicking sink is
// swallowed, nothing is left to report it to.
func (q *Queue) unraisable(task Task, err, secondary error) {
	defer func() {
		_ = recover()
	}()
	q.opts.diagnostics.Unraisable(task, err, secondary)
}
