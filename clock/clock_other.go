//go:build !linux && !darwin

package clock

import (
	"time"
)

// origin anchors monotonic readings, time.Since reads the runtime's
// monotonic clock.
var origin = time.Now()

type systemClock struct{}

func (systemClock) Monotonic() time.Duration {
	return time.Since(origin)
}

func (systemClock) RealTime() time.Time {
	return time.Now()
}
