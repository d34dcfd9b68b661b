// Package median computes the median of a data set using a rolling (online)
// algorithm: values are kept in two heaps, a max-heap holding the lower half
// and a min-heap holding the upper half, so that the median is always found at
// their tops.
//
// Push has a complexity of O(log(n)), Get has a complexity of O(1).
//
// A Median is not safe for concurrent use.
package median

import (
	"container/heap"

	"example.com/rolling-median/base/floats"
)

var ErrInvalidValue = floats.ErrInvalidValue

type Median[T floats.Float] struct {
	lower lowerHeap[T]
	upper upperHeap[T]
}

func New[T floats.Float]() *Median[T] {
	return &Median[T]{}
}

// NewWithCapacity preallocates room for about n values.
func NewWithCapacity[T floats.Float](n int) *Median[T] {
	if n < 0 {
		panic("capacity must not be negative")
	}
	return &Median[T]{
		lower: make(lowerHeap[T], 0, n/2+1),
		upper: make(upperHeap[T], 0, n/2),
	}
}

// Push inserts the next value. NaN is rejected with ErrInvalidValue and
// leaves m unchanged.
func (m *Median[T]) Push(x T) error {
	v, err := floats.NewOrdered(x)
	if err != nil {
		return err
	}
	m.PushOrdered(v)
	return nil
}

func (m *Median[T]) PushOrdered(v floats.Ordered[T]) {
	if len(m.lower) == 0 || v.Compare(m.lower[0]) <= 0 {
		heap.Push(&m.lower, v)
	} else {
		heap.Push(&m.upper, v)
	}

	if len(m.lower) > len(m.upper)+1 {
		heap.Push(&m.upper, heap.Pop(&m.lower))
	} else if len(m.upper) > len(m.lower) {
		heap.Push(&m.lower, heap.Pop(&m.upper))
	}
}

// Get returns the current median, or false if no values have been pushed
// since creation or the last Clear.
func (m *Median[T]) Get() (T, bool) {
	switch {
	case len(m.lower) == 0:
		return 0, false
	case len(m.lower) == len(m.upper):
		return m.lower[0].Midpoint(m.upper[0]).Value(), true
	default:
		return m.lower[0].Value(), true
	}
}

func (m *Median[T]) Len() int {
	return len(m.lower) + len(m.upper)
}

func (m *Median[T]) IsEmpty() bool {
	return m.Len() == 0
}

// Clear removes all values, keeping allocated storage.
func (m *Median[T]) Clear() {
	m.lower = m.lower[:0]
	m.upper = m.upper[:0]
}
