// Package taskqueue provides a segmented, double-buffered task queue: the
// single unit of work of an event-driven scheduler's run loop.
//
// # Architecture
//
// A [Queue] holds two chains of fixed-capacity segments. New work is appended
// to the loading chain by [Queue.Enqueue]. Each [Queue.Drain] detaches the
// executing chain, with everything loaded before it began, and invokes every
// task in insertion order. Segments grow geometrically, from
// [DefaultInitialSegmentCapacity] up to [DefaultMaxSegmentCapacity] slots,
// and are recycled through per-capacity pools as soon as they are consumed.
//
// # Failure Isolation
//
// A task fails by returning an error or panicking. Failures never abort a
// drain: each is passed to the drain's [ErrorHandler], and anything the
// handler cannot deal with (including its own failures) goes to the queue's
// [Diagnostics]. Pass [Discard] to drop failures silently.
//
// # Thread Safety
//
//   - [Queue.Enqueue] may be called from any goroutine, including from a task
//     being drained, in which case the new task runs on the next drain
//   - Only one [Queue.Drain] runs at a time, a concurrent call returns
//     [ErrAlreadyDraining] immediately instead of blocking
//   - [Queue.Clear] may be called mid-drain, the drain stops before its next
//     task
//
// # Usage
//
//	q, err := taskqueue.New(taskqueue.WithName(`io`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer q.Clear()
//
//	_ = q.EnqueueFunc(func() error {
//	    fmt.Println("hello")
//	    return nil
//	})
//
//	n, err := q.Drain(nil)
package taskqueue
