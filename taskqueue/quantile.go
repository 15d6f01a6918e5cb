package taskqueue

import (
	"math"
	"slices"
)

// quantileMarker is one of the five markers of a P-Square estimator.
type quantileMarker struct {
	height  float64 // estimated value at the marker
	pos     int     // actual position, 0-indexed
	desired float64 // ideal position
	step    float64 // desired position increment per observation
}

// streamQuantile estimates a single quantile over a stream of observations
// in constant space, using the P-Square algorithm.
//
// Reference:
// Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for Dynamic Calculation
// of Quantiles and Histograms Without Storing Observations". Communications
// of the ACM, 28(10), pp. 1076-1085.
//
// Thread Safety: NOT thread-safe. Caller must ensure synchronization.
type streamQuantile struct {
	markers [5]quantileMarker
	warmup  [5]float64
	p       float64
	count   int
}

func newStreamQuantile(p float64) *streamQuantile {
	p = math.Max(0, math.Min(1, p))
	s := &streamQuantile{p: p}
	for i, step := range [5]float64{0, p / 2, p, (1 + p) / 2, 1} {
		s.markers[i].step = step
	}
	return s
}

func (s *streamQuantile) observe(x float64) {
	s.count++
	if s.count <= len(s.warmup) {
		s.warmup[s.count-1] = x
		if s.count == len(s.warmup) {
			s.seed()
		}
		return
	}

	m := &s.markers

	// locate the cell k, such that markers[k] <= x < markers[k+1]
	var k int
	switch {
	case x < m[0].height:
		m[0].height = x
	case x >= m[4].height:
		m[4].height = x
		k = 3
	default:
		for k = 0; k < 3; k++ {
			if x < m[k+1].height {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		m[i].pos++
	}
	for i := range m {
		m[i].desired += m[i].step
	}

	for i := 1; i < 4; i++ {
		d := m[i].desired - float64(m[i].pos)
		if (d >= 1 && m[i+1].pos-m[i].pos > 1) || (d <= -1 && m[i-1].pos-m[i].pos < -1) {
			dir := 1
			if d < 0 {
				dir = -1
			}
			if h := s.parabolic(i, dir); m[i-1].height < h && h < m[i+1].height {
				m[i].height = h
			} else {
				m[i].height = s.linear(i, dir)
			}
			m[i].pos += dir
		}
	}
}

// seed initializes the markers from the sorted warmup observations.
func (s *streamQuantile) seed() {
	slices.Sort(s.warmup[:])
	p := s.p
	for i, desired := range [5]float64{0, 2 * p, 4 * p, 2 + 2*p, 4} {
		s.markers[i].height = s.warmup[i]
		s.markers[i].pos = i
		s.markers[i].desired = desired
	}
}

func (s *streamQuantile) parabolic(i, dir int) float64 {
	m := &s.markers
	d := float64(dir)
	n, prev, next := float64(m[i].pos), float64(m[i-1].pos), float64(m[i+1].pos)
	return m[i].height + d/(next-prev)*
		((n-prev+d)*(m[i+1].height-m[i].height)/(next-n)+
			(next-n-d)*(m[i].height-m[i-1].height)/(n-prev))
}

func (s *streamQuantile) linear(i, dir int) float64 {
	m := &s.markers
	j := i + dir
	return m[i].height + float64(dir)*(m[j].height-m[i].height)/float64(m[j].pos-m[i].pos)
}

// value returns the current estimate. Until five observations have been
// seen, it is read directly from the sorted observations.
func (s *streamQuantile) value() float64 {
	switch {
	case s.count == 0:
		return 0
	case s.count < len(s.warmup):
		sorted := slices.Clone(s.warmup[:s.count])
		slices.Sort(sorted)
		return sorted[int(float64(s.count-1)*s.p)]
	default:
		return s.markers[2].height
	}
}
