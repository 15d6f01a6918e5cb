package taskqueue

import (
	"github.com/io-fault/python-sub002/clock"
	"github.com/joeycumines/logiface"
)

// queueOptions holds configuration options for Queue creation.
type queueOptions struct {
	logger          *logiface.Logger[logiface.Event]
	diagnostics     Diagnostics
	observer        Observer
	clock           clock.Source
	name            string
	initialCapacity int
	maxCapacity     int
	segmentBudget   int
	metricsEnabled  bool
}

// Option configures a Queue instance.
type Option interface {
	applyQueue(*queueOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyQueueFunc func(*queueOptions) error
}

func (o *optionImpl) applyQueue(opts *queueOptions) error {
	return o.applyQueueFunc(opts)
}

// WithName labels the queue in log output and observer callbacks.
func WithName(name string) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.name = name
		return nil
	}}
}

// WithInitialSegmentCapacity sets the slot count of the first segment of each
// loading chain. Defaults to DefaultInitialSegmentCapacity.
func WithInitialSegmentCapacity(n int) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if n < 1 {
			return invalidOptionf("initial segment capacity must be positive, got %d", n)
		}
		opts.initialCapacity = n
		return nil
	}}
}

// WithMaxSegmentCapacity caps the geometric growth of segments.
// Defaults to DefaultMaxSegmentCapacity.
func WithMaxSegmentCapacity(n int) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if n < 1 {
			return invalidOptionf("max segment capacity must be positive, got %d", n)
		}
		opts.maxCapacity = n
		return nil
	}}
}

// WithSegmentBudget bounds the number of segments the queue may hold at once.
// Allocations beyond the budget fail with ErrOutOfMemory. Zero (the default)
// means unbounded.
func WithSegmentBudget(n int) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if n < 0 {
			return invalidOptionf("segment budget must not be negative, got %d", n)
		}
		opts.segmentBudget = n
		return nil
	}}
}

// WithLogger attaches a structured logger. The queue logs lifecycle events at
// debug, growth failures and corruption at warning or error. A nil logger
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithDiagnostics replaces the last-resort failure sink. By default failures
// are logged through LoggerDiagnostics, using the queue's logger if any.
func WithDiagnostics(d Diagnostics) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.diagnostics = d
		return nil
	}}
}

// WithObserver attaches an Observer, notified of drains, failures and
// rejections, e.g. to export metrics.
func WithObserver(o Observer) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.observer = o
		return nil
	}}
}

// WithMetrics enables runtime metrics collection on the Queue.
// When enabled, metrics can be accessed via Queue.Metrics().
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithClock sets the time source used to measure task and drain durations.
// Defaults to clock.System.
func WithClock(src clock.Source) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if src == nil {
			return invalidOptionf("nil clock source")
		}
		opts.clock = src
		return nil
	}}
}

// resolveOptions applies Option instances to queueOptions.
func resolveOptions(opts []Option) (*queueOptions, error) {
	cfg := &queueOptions{
		initialCapacity: DefaultInitialSegmentCapacity,
		maxCapacity:     DefaultMaxSegmentCapacity,
		clock:           clock.System,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyQueue(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.initialCapacity > cfg.maxCapacity {
		return nil, invalidOptionf("initial segment capacity %d exceeds max %d", cfg.initialCapacity, cfg.maxCapacity)
	}
	if cfg.diagnostics == nil {
		cfg.diagnostics = LoggerDiagnostics(cfg.logger)
	}
	return cfg, nil
}
