package taskqueue

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrOutOfMemory is returned when a segment cannot be allocated.
	// The operation that triggered the allocation failed, the queue itself
	// remains usable (though see ErrQueueCorrupted).
	ErrOutOfMemory = errors.New("taskqueue: segment allocation failed")

	// ErrAlreadyDraining is returned by Drain while another Drain on the same
	// queue is in progress. Nothing is executed, the caller may retry later.
	ErrAlreadyDraining = errors.New("taskqueue: queue is already draining")

	// ErrQueueCorrupted is returned by Enqueue when the tail segment is observed
	// full at entry, which only happens after a failed growth attempt. The queue
	// must be drained (rotating the loading chain) before it accepts work again.
	ErrQueueCorrupted = errors.New("taskqueue: tail segment is full, queue must be drained")

	// ErrQueueClosed is returned by operations on a queue that has been cleared.
	ErrQueueClosed = errors.New("taskqueue: queue has been cleared")

	// ErrNilTask is returned by Enqueue when given a nil task.
	ErrNilTask = errors.New("taskqueue: nil task")

	// ErrInvalidOption is wrapped by errors returned from New for bad options.
	ErrInvalidOption = errors.New("taskqueue: invalid option")
)

// TaskError pairs a failed task with the error it produced.
// It is what the diagnostic sink receives, it is never returned by Drain.
type TaskError struct {
	Task Task
	Err  error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	if e.Err == nil {
		return "taskqueue: task failed"
	}
	return "taskqueue: task failed: " + e.Err.Error()
}

// Unwrap returns the underlying task failure for use with [errors.Is] and [errors.As].
func (e *TaskError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("taskqueue: task panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type.
// This enables use with [errors.Is] and [errors.As] for error matching
// through the cause chain.
//
// If the panic Value is not an error (e.g., a string or other type),
// returns nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func invalidOptionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidOption}, args...)...)
}
