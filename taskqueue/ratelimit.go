package taskqueue

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
)

// RateLimitedDiagnostics wraps a Diagnostics, limiting the reports it passes
// on per task type, e.g. so a task that fails on every drain cannot flood
// the log. Reports over the limit are counted and dropped.
//
// Thread Safety: safe for concurrent use.
type RateLimitedDiagnostics struct {
	next       Diagnostics
	limiter    *catrate.Limiter
	suppressed atomic.Int64
}

// NewRateLimitedDiagnostics wraps next, allowing at most count reports per
// task type within each window of rates. See catrate.NewLimiter for the
// constraints on rates, it panics if they are invalid. A nil next selects
// LoggerDiagnostics(nil).
func NewRateLimitedDiagnostics(next Diagnostics, rates map[time.Duration]int) *RateLimitedDiagnostics {
	if next == nil {
		next = LoggerDiagnostics(nil)
	}
	return &RateLimitedDiagnostics{
		next:    next,
		limiter: catrate.NewLimiter(rates),
	}
}

// Unraisable implements Diagnostics.
func (x *RateLimitedDiagnostics) Unraisable(task Task, err error, secondary error) {
	if _, ok := x.limiter.Allow(taskTypeName(task)); !ok {
		x.suppressed.Add(1)
		return
	}
	x.next.Unraisable(task, err, secondary)
}

// Suppressed returns the number of reports dropped so far.
func (x *RateLimitedDiagnostics) Suppressed() int64 {
	return x.suppressed.Load()
}
