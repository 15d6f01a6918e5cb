package taskqueue

import (
	"sync"
	"sync/atomic"
)

const (
	// DefaultInitialSegmentCapacity is the number of slots in the first
	// segment of every loading chain.
	DefaultInitialSegmentCapacity = 4

	// DefaultMaxSegmentCapacity caps geometric segment growth.
	// 128 tasks * 16 bytes/slot = 2KB per segment.
	DefaultMaxSegmentCapacity = 128
)

// segment is a fixed-capacity block of task slots, singly linked to the next
// segment of its chain.
//
// The occupied prefix of slots is contiguous from index 0. Only the tail
// segment of a loading chain may be partially filled, and that segment is
// resliced to its occupied length when the chain is rotated.
type segment struct {
	slots []Task
	next  *segment
}

// emptyChain is the executing chain installed when there is nothing to run.
// It has no slots and is shared by every queue, it is never released.
var emptyChain = &segment{}

// segmentAllocator hands out segments for one queue, recycling them through a
// sync.Pool per capacity class, and enforcing an optional live segment budget.
//
// Thread Safety: alloc and release may be called concurrently.
type segmentAllocator struct { // betteralign:ignore
	pools    map[int]*sync.Pool
	initial  int
	max      int
	budget   int64 // maximum live segments, 0 means unbounded
	live     atomic.Int64
	allocs   atomic.Int64
	releases atomic.Int64
	failures atomic.Int64
}

func newSegmentAllocator(initial, max, budget int) *segmentAllocator {
	a := &segmentAllocator{
		pools:   make(map[int]*sync.Pool),
		initial: initial,
		max:     max,
		budget:  int64(budget),
	}
	for c := initial; ; c = a.grow(c) {
		capacity := c
		a.pools[capacity] = &sync.Pool{
			New: func() any {
				return &segment{slots: make([]Task, capacity)}
			},
		}
		if capacity >= max {
			break
		}
	}
	return a
}

// grow returns the capacity of the segment following one of capacity c.
func (a *segmentAllocator) grow(c int) int {
	return min(2*c, a.max)
}

// alloc returns an empty segment with the given capacity, or ErrOutOfMemory
// if the live segment budget is exhausted.
func (a *segmentAllocator) alloc(capacity int) (*segment, error) {
	if a.budget > 0 {
		for {
			n := a.live.Load()
			if n >= a.budget {
				a.failures.Add(1)
				return nil, ErrOutOfMemory
			}
			if a.live.CompareAndSwap(n, n+1) {
				break
			}
		}
	} else {
		a.live.Add(1)
	}
	a.allocs.Add(1)

	pool, ok := a.pools[capacity]
	if !ok {
		return &segment{slots: make([]Task, capacity)}, nil
	}
	s := pool.Get().(*segment)
	s.next = nil
	return s, nil
}

// release returns a segment to its pool, dropping every task reference it
// still holds. The shared emptyChain is ignored.
func (a *segmentAllocator) release(s *segment) {
	if s == nil || s == emptyChain {
		return
	}
	s.slots = s.slots[:cap(s.slots)]
	clear(s.slots)
	s.next = nil
	a.live.Add(-1)
	a.releases.Add(1)
	if pool, ok := a.pools[len(s.slots)]; ok {
		pool.Put(s)
	}
}

// releaseChain releases every segment of the chain starting at s.
func (a *segmentAllocator) releaseChain(s *segment) {
	for s != nil {
		next := s.next
		a.release(s)
		s = next
	}
}
