// Example: Basic Task Queue Usage
//
// This example demonstrates the fundamental usage of the task queue:
// - Creating a queue with a structured logger
// - Enqueueing tasks, including from within a running task
// - Draining, and handling task failures
//
// Run with: go run ./examples/01_basic_usage/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/io-fault/python-sub002/taskqueue"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

func main() {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelDebug),
	).Logger()

	q, err := taskqueue.New(
		taskqueue.WithName(`basic`),
		taskqueue.WithLogger(logger),
		taskqueue.WithMetrics(true),
	)
	if err != nil {
		panic(err)
	}
	defer q.Clear()

	// Tasks run in the order they were enqueued
	for i := 1; i <= 3; i++ {
		_ = q.EnqueueFunc(func() error {
			fmt.Printf("Task %d\n", i)
			return nil
		})
	}

	// Work scheduled by a running task waits for the next drain
	_ = q.EnqueueFunc(func() error {
		fmt.Println("Task 4: scheduling a follow-up")
		return q.EnqueueFunc(func() error {
			fmt.Println("Follow-up: runs on the second drain")
			return nil
		})
	})

	// A failing task does not stop its siblings
	_ = q.EnqueueFunc(func() error {
		return errors.New(`something went wrong`)
	})
	_ = q.EnqueueFunc(func() error {
		panic(`something went very wrong`)
	})

	handler := taskqueue.ErrorHandlerFunc(func(task taskqueue.Task, err error) error {
		fmt.Printf("Handled failure: %v\n", err)
		return nil
	})

	for cycle := 1; q.Len() > 0; cycle++ {
		n, err := q.Drain(handler)
		if err != nil {
			panic(err)
		}
		fmt.Printf("Drain %d executed %d tasks\n", cycle, n)
	}

	m := q.Metrics()
	fmt.Printf("Executed: %d, failed: %d, panicked: %d, mean latency: %v\n",
		m.Executed, m.Failed, m.Panicked, m.Latency.Mean)
}
