package median

import (
	"example.com/rolling-median/base/floats"
)

// lowerHeap is a max-heap, upperHeap a min-heap; both implement heap.Interface.

type lowerHeap[T floats.Float] []floats.Ordered[T]

func (h lowerHeap[T]) Len() int           { return len(h) }
func (h lowerHeap[T]) Less(i, j int) bool { return h[j].Less(h[i]) }
func (h lowerHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *lowerHeap[T]) Push(x any) {
	*h = append(*h, x.(floats.Ordered[T]))
}

func (h *lowerHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type upperHeap[T floats.Float] []floats.Ordered[T]

func (h upperHeap[T]) Len() int           { return len(h) }
func (h upperHeap[T]) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h upperHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *upperHeap[T]) Push(x any) {
	*h = append(*h, x.(floats.Ordered[T]))
}

func (h *upperHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
