//go:build linux || darwin

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

type systemClock struct{}

func (systemClock) Monotonic() time.Duration {
	return readClock(unix.CLOCK_MONOTONIC)
}

func (systemClock) RealTime() time.Time {
	return time.Unix(0, int64(readClock(unix.CLOCK_REALTIME)))
}

// readClock panics if clock_gettime fails, which it only does for an
// unsupported clock id.
func readClock(id int32) time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(id, &ts); err != nil {
		panic("clock: clock_gettime: " + err.Error())
	}
	return time.Duration(ts.Nano())
}
