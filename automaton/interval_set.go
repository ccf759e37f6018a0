package automaton

import (
	"fmt"
	"strings"
)

// Interval is a half-open range [Start, Stop) of token types or code points.
type Interval struct {
	Start int
	Stop  int
}

func newInterval(start, stop int) Interval {
	return Interval{
		Start: start,
		Stop:  stop,
	}
}

func (i Interval) Contains(v int) bool {
	return v >= i.Start && v < i.Stop
}

func (i Interval) Length() int {
	return i.Stop - i.Start
}

// IntervalSet is an ordered set of non-overlapping intervals. The zero value
// is an empty set.
type IntervalSet struct {
	intervals []Interval
}

func NewIntervalSet() *IntervalSet {
	return &IntervalSet{}
}

// NewIntervalSetOf returns a set containing the single value `v`.
func NewIntervalSetOf(v int) *IntervalSet {
	s := NewIntervalSet()
	s.AddOne(v)
	return s
}

// NewIntervalSetOfRange returns a set containing all values of [lo, hi].
func NewIntervalSetOfRange(lo, hi int) *IntervalSet {
	s := NewIntervalSet()
	s.AddRange(lo, hi)
	return s
}

func (s *IntervalSet) AddOne(v int) {
	s.addInterval(newInterval(v, v+1))
}

// AddRange adds all values of the inclusive range [lo, hi].
func (s *IntervalSet) AddRange(lo, hi int) {
	s.addInterval(newInterval(lo, hi+1))
}

func (s *IntervalSet) addInterval(v Interval) {
	if v.Length() <= 0 {
		return
	}
	for i, in := range s.intervals {
		if v.Start > in.Stop {
			continue
		}
		// Adjacent or overlapping intervals coalesce into one.
		if v.Stop < in.Start {
			s.intervals = append(s.intervals, Interval{})
			copy(s.intervals[i+1:], s.intervals[i:])
			s.intervals[i] = v
			return
		}
		if v.Start < in.Start {
			s.intervals[i].Start = v.Start
		}
		if v.Stop > in.Stop {
			s.intervals[i].Stop = v.Stop
			s.mergeFrom(i)
		}
		return
	}
	s.intervals = append(s.intervals, v)
}

func (s *IntervalSet) mergeFrom(i int) {
	for i+1 < len(s.intervals) && s.intervals[i].Stop >= s.intervals[i+1].Start {
		if s.intervals[i+1].Stop > s.intervals[i].Stop {
			s.intervals[i].Stop = s.intervals[i+1].Stop
		}
		s.intervals = append(s.intervals[:i+1], s.intervals[i+2:]...)
	}
}

// Remove deletes `v` from the set, splitting an interval when needed.
func (s *IntervalSet) Remove(v int) {
	for i, in := range s.intervals {
		if v < in.Start {
			return
		}
		if !in.Contains(v) {
			continue
		}
		switch {
		case in.Length() == 1:
			s.intervals = append(s.intervals[:i], s.intervals[i+1:]...)
		case v == in.Start:
			s.intervals[i].Start = v + 1
		case v == in.Stop-1:
			s.intervals[i].Stop = v
		default:
			tail := newInterval(v+1, in.Stop)
			s.intervals[i].Stop = v
			s.intervals = append(s.intervals, Interval{})
			copy(s.intervals[i+2:], s.intervals[i+1:])
			s.intervals[i+1] = tail
		}
		return
	}
}

// AddSet unions `o` into the set.
func (s *IntervalSet) AddSet(o *IntervalSet) {
	if o == nil {
		return
	}
	for _, in := range o.intervals {
		s.addInterval(in)
	}
}

func (s *IntervalSet) Contains(v int) bool {
	for _, in := range s.intervals {
		if v < in.Start {
			return false
		}
		if v < in.Stop {
			return true
		}
	}
	return false
}

func (s *IntervalSet) Length() int {
	n := 0
	for _, in := range s.intervals {
		n += in.Length()
	}
	return n
}

func (s *IntervalSet) IsEmpty() bool {
	return s == nil || len(s.intervals) == 0
}

// Min returns the smallest value in the set. The set must not be empty.
func (s *IntervalSet) Min() int {
	return s.intervals[0].Start
}

func (s *IntervalSet) Intervals() []Interval {
	return s.intervals
}

// Values expands the set into a sorted slice of its members.
func (s *IntervalSet) Values() []int {
	vs := make([]int, 0, s.Length())
	for _, in := range s.intervals {
		for v := in.Start; v < in.Stop; v++ {
			vs = append(vs, v)
		}
	}
	return vs
}

// Complement returns all values of [lo, hi] that are not in the set.
func (s *IntervalSet) Complement(lo, hi int) *IntervalSet {
	c := NewIntervalSet()
	next := lo
	for _, in := range s.intervals {
		if in.Start > next {
			end := in.Start - 1
			if end > hi {
				end = hi
			}
			if next <= end {
				c.AddRange(next, end)
			}
		}
		if in.Stop > next {
			next = in.Stop
		}
		if next > hi {
			return c
		}
	}
	if next <= hi {
		c.AddRange(next, hi)
	}
	return c
}

func (s *IntervalSet) Equal(o *IntervalSet) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.intervals) != len(o.intervals) {
		return false
	}
	for i, in := range s.intervals {
		if in != o.intervals[i] {
			return false
		}
	}
	return true
}

func (s *IntervalSet) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{")
	for i, in := range s.intervals {
		if i > 0 {
			b.WriteString(", ")
		}
		if in.Length() == 1 {
			fmt.Fprintf(&b, "%v", in.Start)
		} else {
			fmt.Fprintf(&b, "%v..%v", in.Start, in.Stop-1)
		}
	}
	b.WriteString("}")
	return b.String()
}
