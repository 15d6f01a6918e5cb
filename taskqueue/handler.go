package taskqueue

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

type (
	// ErrorHandler receives task failures during Drain.
	//
	// HandleTaskError is called on the draining goroutine, with the failed task
	// and the error it produced (a *PanicError if it panicked). If it returns
	// an error, or panics, that secondary failure is reported to the queue's
	// Diagnostics and then discarded; it never interrupts the drain.
	ErrorHandler interface {
		HandleTaskError(task Task, err error) error
	}

	// ErrorHandlerFunc adapts an ordinary function to the ErrorHandler interface.
	ErrorHandlerFunc func(task Task, err error) error

	// Diagnostics is the last-resort sink for failures that nothing else
	// handled: task failures drained without a handler, and failures of the
	// handler itself (secondary is non-nil in that case).
	Diagnostics interface {
		Unraisable(task Task, err error, secondary error)
	}

	// DiagnosticsFunc adapts an ordinary function to the Diagnostics interface.
	DiagnosticsFunc func(task Task, err error, secondary error)

	discardHandler struct{}

	loggerDiagnostics struct {
		logger *logiface.Logger[logiface.Event]
	}
)

// Discard is the ErrorHandler that silently drops every task failure.
// Drain recognizes it and reports nothing, not even to Diagnostics.
var Discard ErrorHandler = discardHandler{}

var (
	stderrLoggerOnce sync.Once
	stderrLogger     *logiface.Logger[logiface.Event]
)

// HandleTaskError calls f(task, err).
func (f ErrorHandlerFunc) HandleTaskError(task Task, err error) error {
	return f(task, err)
}

// Unraisable calls f(task, err, secondary).
func (f DiagnosticsFunc) Unraisable(task Task, err error, secondary error) {
	f(task, err, secondary)
}

func (discardHandler) HandleTaskError(Task, error) error { return nil }

// LoggerDiagnostics returns a Diagnostics that logs at the critical level.
// A nil logger selects a JSON logger writing to stderr.
func LoggerDiagnostics(logger *logiface.Logger[logiface.Event]) Diagnostics {
	if logger == nil {
		logger = defaultStderrLogger()
	}
	return loggerDiagnostics{logger: logger}
}

func (x loggerDiagnostics) Unraisable(task Task, err error, secondary error) {
	b := x.logger.Crit()
	if !b.Enabled() {
		return
	}
	b = b.Err(&TaskError{Task: task, Err: err}).
		Str(`task`, taskTypeName(task))
	if secondary != nil {
		b = b.Str(`handler_error`, secondary.Error())
		b.Log(`task error handler failed`)
		return
	}
	b.Log(`unhandled task failure`)
}

func defaultStderrLogger() *logiface.Logger[logiface.Event] {
	stderrLoggerOnce.Do(func() {
		stderrLogger = stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
			stumpy.L.WithLevel(logiface.LevelCritical),
		).Logger()
	})
	return stderrLogger
}
