package taskqueue_test

import (
	"errors"
	"fmt"

	"github.com/io-fault/python-sub002/taskqueue"
)

func ExampleQueue() {
	q, err := taskqueue.New(taskqueue.WithName(`example`))
	if err != nil {
		panic(err)
	}
	defer q.Clear()

	for _, name := range []string{`A`, `B`, `C`} {
		_ = q.EnqueueFunc(func() error {
			fmt.Println(`run`, name)
			if name == `B` {
				// scheduled from a running task: runs on the next drain
				_ = q.EnqueueFunc(func() error {
					fmt.Println(`run D`)
					return nil
				})
			}
			return nil
		})
	}

	n, _ := q.Drain(nil)
	fmt.Println(`first drain:`, n)
	n, _ = q.Drain(nil)
	fmt.Println(`second drain:`, n)

	// Output:
	// run A
	// run B
	// run C
	// first drain: 3
	// run D
	// second drain: 1
}

func ExampleErrorHandlerFunc() {
	q, err := taskqueue.New()
	if err != nil {
		panic(err)
	}
	defer q.Clear()

	_ = q.EnqueueFunc(func() error { return errors.New(`disk full`) })
	_ = q.EnqueueFunc(func() error { panic(`unexpected`) })
	_ = q.EnqueueFunc(func() error {
		fmt.Println(`still running`)
		return nil
	})

	n, _ := q.Drain(taskqueue.ErrorHandlerFunc(func(task taskqueue.Task, err error) error {
		var panicErr *taskqueue.PanicError
		if errors.As(err, &panicErr) {
			fmt.Println(`recovered:`, panicErr.Value)
			return nil
		}
		fmt.Println(`failed:`, err)
		return nil
	}))
	fmt.Println(`executed:`, n)

	// Output:
	// failed: disk full
	// recovered: unexpected
	// still running
	// executed: 3
}
