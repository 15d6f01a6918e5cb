// Package clock provides monotonic and real-time clock readings, with an
// optional settable offset.
//
// Monotonic readings are durations since an arbitrary, fixed origin (on most
// systems, boot). They never go backwards, and are the basis for measuring
// elapsed time. Real-time readings are wall clock instants, subject to
// adjustment by the operating system.
package clock

import (
	"sync/atomic"
	"time"
)

// Source reads the time.
type Source interface {
	// Monotonic returns the time elapsed since a fixed origin. Successive
	// readings never decrease.
	Monotonic() time.Duration

	// RealTime returns the current wall clock time.
	RealTime() time.Time
}

// System is the operating system clock.
var System Source = systemClock{}

// Snapshot holds a monotonic and a real-time reading taken together.
type Snapshot struct {
	Monotonic time.Duration
	RealTime  time.Time
}

// Now takes a Snapshot of src.
func Now(src Source) Snapshot {
	return Snapshot{
		Monotonic: src.Monotonic(),
		RealTime:  src.RealTime(),
	}
}

// Since returns the monotonic time elapsed since s, according to src.
func (s Snapshot) Since(src Source) time.Duration {
	return src.Monotonic() - s.Monotonic
}

// Offset is a Source that shifts the readings of another Source by a
// settable amount. The offset applies to both monotonic and real-time
// readings. Negative offsets that would take the monotonic reading below
// zero are clamped at zero.
//
// Thread Safety: all methods are safe for concurrent use.
type Offset struct {
	src    Source
	offset atomic.Int64
}

// NewOffset wraps src with an initial offset.
func NewOffset(src Source, offset time.Duration) *Offset {
	o := &Offset{src: src}
	o.offset.Store(int64(offset))
	return o
}

// Set replaces the offset.
func (o *Offset) Set(offset time.Duration) {
	o.offset.Store(int64(offset))
}

// Adjust adds delta to the offset, returning the new offset.
func (o *Offset) Adjust(delta time.Duration) time.Duration {
	return time.Duration(o.offset.Add(int64(delta)))
}

// Get returns the current offset.
func (o *Offset) Get() time.Duration {
	return time.Duration(o.offset.Load())
}

func (o *Offset) Monotonic() time.Duration {
	return max(o.src.Monotonic()+o.Get(), 0)
}

func (o *Offset) RealTime() time.Time {
	return o.src.RealTime().Add(o.Get())
}

// Manual is a Source that only moves when told to, for tests.
//
// Thread Safety: all methods are safe for concurrent use.
type Manual struct {
	mono   atomic.Int64
	origin time.Time
}

// NewManual returns a Manual clock whose real-time reading starts at origin.
func NewManual(origin time.Time) *Manual {
	return &Manual{origin: origin}
}

// Advance moves the clock forward by d. Negative values are ignored, the
// monotonic reading never decreases.
func (m *Manual) Advance(d time.Duration) {
	if d > 0 {
		m.mono.Add(int64(d))
	}
}

func (m *Manual) Monotonic() time.Duration {
	return time.Duration(m.mono.Load())
}

func (m *Manual) RealTime() time.Time {
	return m.origin.Add(m.Monotonic())
}

// Stopwatch measures elapsed monotonic time.
type Stopwatch struct {
	src   Source
	start time.Duration
}

// Start returns a Stopwatch started now.
func Start(src Source) Stopwatch {
	return Stopwatch{src: src, start: src.Monotonic()}
}

// Elapsed returns the time since the Stopwatch was started.
func (s Stopwatch) Elapsed() time.Duration {
	return s.src.Monotonic() - s.start
}

// Lap returns the time since the Stopwatch was started, and restarts it.
func (s *Stopwatch) Lap() time.Duration {
	now := s.src.Monotonic()
	d := now - s.start
	s.start = now
	return d
}
