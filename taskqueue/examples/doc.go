// Package examples contains runnable example programs demonstrating
// the taskqueue package functionality.
//
// # Examples
//
//   - 01_basic_usage: Enqueue, drain, and failure handling
//   - 02_run_loop: A run loop draining once per tick, with signal handling
//     and Prometheus metrics
//
// # Running Examples
//
//	cd taskqueue/examples
//	go run ./01_basic_usage/
//	go run ./02_run_loop/
package examples
