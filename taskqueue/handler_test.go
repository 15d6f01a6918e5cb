package taskqueue

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unraisableCall struct {
	task      Task
	err       error
	secondary error
}

type diagnosticsRecorder struct {
	mu    sync.Mutex
	calls []unraisableCall
}

func (x *diagnosticsRecorder) Unraisable(task Task, err error, secondary error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.calls = append(x.calls, unraisableCall{task: task, err: err, secondary: secondary})
}

func (x *diagnosticsRecorder) snapshot() []unraisableCall {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]unraisableCall(nil), x.calls...)
}

func TestDrain_failureIsolation(t *testing.T) {
	var diag diagnosticsRecorder
	q := newTestQueue(t, WithDiagnostics(&diag))
	var r recorder
	errBoom := errors.New(`boom`)

	require.NoError(t, q.Enqueue(r.task(`1`)))
	require.NoError(t, q.EnqueueFunc(func() error { return errBoom }))
	require.NoError(t, q.Enqueue(r.task(`3`)))
	require.NoError(t, q.EnqueueFunc(func() error { panic(`kaboom`) }))
	require.NoError(t, q.Enqueue(r.task(`5`)))

	var handled []error
	n, err := q.Drain(ErrorHandlerFunc(func(task Task, err error) error {
		require.NotNil(t, task)
		handled = append(handled, err)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{`1`, `3`, `5`}, r.labels())

	require.Len(t, handled, 2)
	assert.ErrorIs(t, handled[0], errBoom)
	var panicErr *PanicError
	require.ErrorAs(t, handled[1], &panicErr)
	assert.Equal(t, `kaboom`, panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Nil(t, panicErr.Unwrap())

	assert.Empty(t, diag.snapshot())
}

func TestDrain_Discard(t *testing.T) {
	var diag diagnosticsRecorder
	q := newTestQueue(t, WithDiagnostics(&diag))
	for range 4 {
		require.NoError(t, q.EnqueueFunc(func() error { return io.EOF }))
	}
	require.NoError(t, q.EnqueueFunc(func() error { panic(io.ErrUnexpectedEOF) }))

	n, err := q.Drain(Discard)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Empty(t, diag.snapshot())
}

func TestDrain_nilHandlerReportsToDiagnostics(t *testing.T) {
	var diag diagnosticsRecorder
	q := newTestQueue(t, WithDiagnostics(&diag))
	failing := TaskFunc(func() error { return io.EOF })
	require.NoError(t, q.Enqueue(failing))
	require.NoError(t, q.EnqueueFunc(func() error { return nil }))

	n, err := q.Drain(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	calls := diag.snapshot()
	require.Len(t, calls, 1)
	assert.ErrorIs(t, calls[0].err, io.EOF)
	assert.NoError(t, calls[0].secondary)
	assert.NotNil(t, calls[0].task)
}

func TestDrain_handlerFailure(t *testing.T) {
	errHandler := errors.New(`handler failed`)
	for _, tc := range [...]struct {
		name    string
		handler ErrorHandler
		check   func(t *testing.T, secondary error)
	}{
		{
			name: `returns error`,
			handler: ErrorHandlerFunc(func(Task, error) error {
				return errHandler
			}),
			check: func(t *testing.T, secondary error) {
				assert.ErrorIs(t, secondary, errHandler)
			},
		},
		{
			name: `panics`,
			handler: ErrorHandlerFunc(func(Task, error) error {
				panic(errHandler)
			}),
			check: func(t *testing.T, secondary error) {
				var panicErr *PanicError
				require.ErrorAs(t, secondary, &panicErr)
				assert.ErrorIs(t, secondary, errHandler)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var diag diagnosticsRecorder
			q := newTestQueue(t, WithDiagnostics(&diag), WithMetrics(true))
			var r recorder
			require.NoError(t, q.EnqueueFunc(func() error { return io.EOF }))
			require.NoError(t, q.Enqueue(r.task(`survivor`)))

			n, err := q.Drain(tc.handler)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, []string{`survivor`}, r.labels())

			calls := diag.snapshot()
			require.Len(t, calls, 1)
			assert.ErrorIs(t, calls[0].err, io.EOF)
			tc.check(t, calls[0].secondary)
			assert.Equal(t, int64(1), q.Metrics().HandlerFailures)
		})
	}
}

func TestDrain_panickingDiagnosticsIsSwallowed(t *testing.T) {
	q := newTestQueue(t, WithDiagnostics(DiagnosticsFunc(func(Task, error, error) {
		panic(`diagnostics exploded`)
	})))
	var r recorder
	require.NoError(t, q.EnqueueFunc(func() error { return io.EOF }))
	require.NoError(t, q.Enqueue(r.task(`survivor`)))

	n, err := q.Drain(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{`survivor`}, r.labels())
}

func TestDrain_queueUsableAfterFailures(t *testing.T) {
	q := newTestQueue(t)
	require.NoError(t, q.EnqueueFunc(func() error { panic(`x`) }))
	_, err := q.Drain(Discard)
	require.NoError(t, err)

	var r recorder
	require.NoError(t, q.Enqueue(r.task(`ok`)))
	n, err := q.Drain(Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{`ok`}, r.labels())
}

func TestPanicError_unwrap(t *testing.T) {
	err := runTask(TaskFunc(func() error { panic(io.EOF) }))
	assert.ErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), `task panicked: EOF`)

	assert.NoError(t, runTask(TaskFunc(func() error { return nil })))
}

func TestTaskError(t *testing.T) {
	task := TaskFunc(func() error { return nil })
	err := &TaskError{Task: task, Err: io.EOF}
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, `taskqueue: task failed: EOF`, err.Error())
	assert.Equal(t, `taskqueue: task failed`, (&TaskError{}).Error())
}

func TestLoggerDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := stumpy.L.New(stumpy.L.WithStumpy(
		stumpy.WithWriter(&buf),
		stumpy.WithTimeField(``),
	)).Logger()

	q := newTestQueue(t, WithLogger(logger))
	require.NoError(t, q.EnqueueFunc(func() error { return io.EOF }))
	require.NoError(t, q.EnqueueFunc(func() error { return io.ErrClosedPipe }))

	calls := 0
	_, err := q.Drain(ErrorHandlerFunc(func(task Task, err error) error {
		calls++
		if errors.Is(err, io.ErrClosedPipe) {
			return errors.New(`cannot handle`)
		}
		return err
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var failures []string
	for _, line := range lines {
		if strings.Contains(line, `"lvl":"crit"`) {
			failures = append(failures, line)
		}
	}
	require.Len(t, failures, 2, buf.String())
	assert.Contains(t, failures[0], `"msg":"task error handler failed"`)
	assert.Contains(t, failures[0], `"task":"taskqueue.TaskFunc"`)
	assert.Contains(t, failures[1], `"handler_error":"cannot handle"`)

	buf.Reset()
	require.NoError(t, q.EnqueueFunc(func() error { return io.EOF }))
	_, err = q.Drain(nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"unhandled task failure"`)
}

func TestLoggerDiagnostics_nilLogger(t *testing.T) {
	d := LoggerDiagnostics(nil)
	assert.NotNil(t, d)
	assert.Same(t, defaultStderrLogger(), d.(loggerDiagnostics).logger)
}

func TestTaskTypeName(t *testing.T) {
	assert.Equal(t, `<nil>`, taskTypeName(nil))
	assert.Equal(t, `*taskqueue.labelTask`, taskTypeName(&labelTask{}))
}
