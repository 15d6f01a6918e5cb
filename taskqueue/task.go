package taskqueue

import (
	"runtime/debug"
)

// Task is a unit of deferred work accepted by a Queue.
//
// A task fails if Run returns a non-nil error, or panics. Either way the
// failure is contained by Drain, see ErrorHandler.
type Task interface {
	Run() error
}

// TaskFunc adapts an ordinary function to the Task interface.
type TaskFunc func() error

// Run calls f().
func (f TaskFunc) Run() error {
	return f()
}

// runTask invokes t, converting a panic into a *PanicError.
func runTask(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return t.Run()
}
