package taskqueue

import (
	"time"
)

// Failure outcomes reported to Observer.ObserveTaskFailure.
const (
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Rejection reasons reported to Observer.ObserveRejected.
const (
	RejectOutOfMemory = "out_of_memory"
	RejectCorrupted   = "corrupted"
	RejectClosed      = "closed"
)

// Observer receives queue events, e.g. for export to a metrics system.
// Methods are called synchronously, on the goroutine performing the
// operation, and must not call back into the queue.
type Observer interface {
	// ObserveDrain is called after every completed Drain.
	ObserveDrain(queue string, executed, failed int, duration time.Duration)

	// ObserveTaskFailure is called for each failed task, outcome is one of
	// OutcomeError or OutcomePanic.
	ObserveTaskFailure(queue string, outcome string)

	// ObserveHandlerFailure is called when an ErrorHandler itself fails.
	ObserveHandlerFailure(queue string)

	// ObserveRejected is called when Enqueue fails, reason is one of the
	// Reject* constants.
	ObserveRejected(queue string, reason string)

	// ObserveDepth is called with the pending task count, after each Drain.
	ObserveDepth(queue string, depth int)
}
