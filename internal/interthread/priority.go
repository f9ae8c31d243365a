package interthread

import (
	"cmp"
	"container/heap"
)

// PriorityQueue serves the highest element first. Equal elements are served
// in insertion order.
type PriorityQueue[T any] struct {
	base[T]
}

// NewPriorityQueue creates an empty queue ordered by higher, which reports
// whether a is served before b.
func NewPriorityQueue[T any](higher func(a, b T) bool, opts ...Option) *PriorityQueue[T] {
	q := &PriorityQueue[T]{}
	q.init(&priorityStore[T]{h: entryHeap[T]{higher: higher}}, opts)
	return q
}

// Greater orders larger values first.
func Greater[T cmp.Ordered](a, b T) bool {
	return a > b
}

// PointerGreater orders larger pointed-to values first. Nil sorts last.
func PointerGreater[T cmp.Ordered](a, b *T) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a > *b
}

type entry[T any] struct {
	v   T
	seq uint64
}

type entryHeap[T any] struct {
	entries []entry[T]
	higher  func(a, b T) bool
}

func (h *entryHeap[T]) Len() int { return len(h.entries) }

func (h *entryHeap[T]) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if h.higher(a.v, b.v) {
		return true
	}
	if h.higher(b.v, a.v) {
		return false
	}
	return a.seq < b.seq
}

func (h *entryHeap[T]) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *entryHeap[T]) Push(x any) { h.entries = append(h.entries, x.(entry[T])) }

func (h *entryHeap[T]) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries[n-1] = entry[T]{}
	h.entries = h.entries[:n-1]
	return e
}

type priorityStore[T any] struct {
	h   entryHeap[T]
	seq uint64
}

func (s *priorityStore[T]) push(v T) {
	s.seq++
	heap.Push(&s.h, entry[T]{v: v, seq: s.seq})
}

func (s *priorityStore[T]) pop() (T, bool) {
	if s.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&s.h).(entry[T]).v, true
}

func (s *priorityStore[T]) len() int {
	return s.h.Len()
}

func (s *priorityStore[T]) drain() []T {
	out := make([]T, 0, s.h.Len())
	for s.h.Len() > 0 {
		v, _ := s.pop()
		out = append(out, v)
	}
	return out
}
