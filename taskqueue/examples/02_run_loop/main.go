// Example: Run Loop
//
// This example demonstrates a scheduler run loop built on the task queue:
// - Producers enqueueing from other goroutines
// - Draining once per tick, measuring with the clock package
// - Stopping on a signal, identified by the signals package
// - Exporting queue activity to Prometheus, on an endpoint
//
// Run with: go run ./examples/02_run_loop/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/io-fault/python-sub002/clock"
	"github.com/io-fault/python-sub002/endpoint"
	taskprom "github.com/io-fault/python-sub002/observability/prometheus"
	"github.com/io-fault/python-sub002/signals"
	"github.com/io-fault/python-sub002/taskqueue"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(logiface.LevelInformational),
	).Logger()

	reg := prometheus.NewRegistry()
	exporter, err := taskprom.NewExporter(`example`, reg, taskprom.ExporterOptions{})
	if err != nil {
		panic(err)
	}
	snapshots, err := taskprom.NewSnapshotCollector(`example`, reg)
	if err != nil {
		panic(err)
	}

	q, err := taskqueue.New(
		taskqueue.WithName(`run-loop`),
		taskqueue.WithLogger(logger),
		taskqueue.WithObserver(exporter),
		taskqueue.WithMetrics(true),
	)
	if err != nil {
		panic(err)
	}
	defer q.Clear()
	snapshots.Add(q)

	listen, err := endpoint.Parse(`ip4:127.0.0.1:9464`)
	if err != nil {
		panic(err)
	}
	addr, _ := listen.AddrPort()
	server := &http.Server{
		Addr:              addr.String(),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warning().Err(err).Str(`endpoint`, listen.String()).Log(`metrics server failed`)
		}
	}()
	defer server.Shutdown(context.Background())
	fmt.Printf("Metrics at http://%s/metrics\n", addr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Producer: schedules work from another goroutine
	var produced atomic.Int64
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := produced.Add(1)
				_ = q.EnqueueFunc(func() error {
					if n%25 == 0 {
						return fmt.Errorf("task %d failed", n)
					}
					return nil
				})
			}
		}
	}()

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	uptime := clock.Start(clock.System)

	for {
		select {
		case sig := <-sigs:
			name, _ := signals.Identify(sig.(syscall.Signal))
			fmt.Printf("Received %s (%s), stopping\n", name, signals.SystemName(sig.(syscall.Signal)))
			cancel()
		case <-ctx.Done():
			m := q.Metrics()
			fmt.Printf("Ran for %v: produced %d, executed %d, failed %d, drains %d\n",
				uptime.Elapsed().Round(time.Millisecond), produced.Load(), m.Executed, m.Failed, m.Drains)
			return
		case <-tick.C:
			if _, err := q.Drain(nil); err != nil {
				logger.Err().Err(err).Log(`drain failed`)
			}
		}
	}
}
