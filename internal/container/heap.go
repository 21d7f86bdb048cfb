// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package container

// MinHeap is a binary min-heap ordered by a caller-supplied Less function.
// Adapted from the teacher's internal/cache/heap.go (there specialized to
// eviction candidates ordered by time.Time); generalized here to any T and
// any ordering so internal/chunkstore can order garbage-collection
// candidates by chunk RowId range rather than wall-clock time.
type MinHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

// NewMinHeap returns an empty heap ordered by less (a "comes before" b).
func NewMinHeap[T any](less func(a, b T) bool) *MinHeap[T] {
	return &MinHeap[T]{less: less}
}

// Len returns the number of items in the heap.
func (h *MinHeap[T]) Len() int { return len(h.items) }

// Push inserts v into the heap.
func (h *MinHeap[T]) Push(v T) {
	h.items = append(h.items, v)
	h.siftUp(len(h.items) - 1)
}

// Peek returns the minimum item without removing it.
func (h *MinHeap[T]) Peek() (v T, ok bool) {
	if len(h.items) == 0 {
		return v, false
	}
	return h.items[0], true
}

// Pop removes and returns the minimum item.
func (h *MinHeap[T]) Pop() (v T, ok bool) {
	n := len(h.items)
	if n == 0 {
		return v, false
	}
	top := h.items[0]
	last := n - 1
	h.items[0] = h.items[last]
	var zero T
	h.items[last] = zero
	h.items = h.items[:last]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return top, true
}

func (h *MinHeap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap[T]) siftDown(i int) {
	n := len(h.items)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && h.less(h.items[left], h.items[smallest]) {
			smallest = left
		}
		if right < n && h.less(h.items[right], h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
