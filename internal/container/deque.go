// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package container provides the generic data structures the chunk store
// and query cache are built on. They are adapted from the teacher
// repository's internal/cache package (a doubly-linked-list LRU, a
// timestamp-ordered min-heap, and a Fenwick prefix-sum tree), generalized
// here to the element types the columnar store needs instead of the
// teacher's cache-entry/timestamp types.
package container

// dequeNode is one element of a Deque's doubly-linked list.
type dequeNode[T any] struct {
	value T
	prev  *dequeNode[T]
	next  *dequeNode[T]
}

// Deque is an unbounded, non-thread-safe double-ended queue with O(1)
// push/pop at both ends. This is the ErasedFlatDeque primitive spec.md
// §4.5 and §9 describe for a query cache entry's index and promise
// queues; callers (internal/querycache) own the
// locking. Adapted from the teacher's internal/cache/lru.go doubly-linked
// list, generalized from a fixed (string, time.Time) entry to any T and
// with capacity/TTL eviction removed (the cache entry's own invalidation
// rules, not a generic LRU policy, govern what is ever dropped).
type Deque[T any] struct {
	head *dequeNode[T] // sentinel; head.next is the front element
	tail *dequeNode[T] // sentinel; tail.prev is the back element
	n    int
}

// NewDeque returns an empty deque.
func NewDeque[T any]() *Deque[T] {
	d := &Deque[T]{
		head: &dequeNode[T]{},
		tail: &dequeNode[T]{},
	}
	d.head.next = d.tail
	d.tail.prev = d.head
	return d
}

// Len returns the number of elements currently in the deque.
func (d *Deque[T]) Len() int { return d.n }

// PushFront inserts v at the front.
func (d *Deque[T]) PushFront(v T) {
	node := &dequeNode[T]{value: v}
	node.next = d.head.next
	node.prev = d.head
	d.head.next.prev = node
	d.head.next = node
	d.n++
}

// PushBack inserts v at the back.
func (d *Deque[T]) PushBack(v T) {
	node := &dequeNode[T]{value: v}
	node.prev = d.tail.prev
	node.next = d.tail
	d.tail.prev.next = node
	d.tail.prev = node
	d.n++
}

// PopFront removes and returns the front element. ok is false if empty.
func (d *Deque[T]) PopFront() (v T, ok bool) {
	if d.n == 0 {
		return v, false
	}
	node := d.head.next
	d.removeNode(node)
	return node.value, true
}

// PopBack removes and returns the back element. ok is false if empty.
func (d *Deque[T]) PopBack() (v T, ok bool) {
	if d.n == 0 {
		return v, false
	}
	node := d.tail.prev
	d.removeNode(node)
	return node.value, true
}

// Front returns the front element without removing it.
func (d *Deque[T]) Front() (v T, ok bool) {
	if d.n == 0 {
		return v, false
	}
	return d.head.next.value, true
}

// Back returns the back element without removing it.
func (d *Deque[T]) Back() (v T, ok bool) {
	if d.n == 0 {
		return v, false
	}
	return d.tail.prev.value, true
}

func (d *Deque[T]) removeNode(node *dequeNode[T]) {
	node.prev.next = node.next
	node.next.prev = node.prev
	d.n--
}

// ToSlice returns the elements from front to back. Intended for read-only
// snapshotting (e.g. serving a guarded view of cached indices); it copies.
func (d *Deque[T]) ToSlice() []T {
	out := make([]T, 0, d.n)
	for node := d.head.next; node != d.tail; node = node.next {
		out = append(out, node.value)
	}
	return out
}

// TrimBack discards elements from the back while shouldDrop returns true for the
// current back element. Used by cache truncation (truncate_at_time) to
// drop trailing rows past a threshold without rebuilding the whole deque.
func (d *Deque[T]) TrimBack(shouldDrop func(T) bool) (dropped int) {
	for {
		v, ok := d.Back()
		if !ok || !shouldDrop(v) {
			return dropped
		}
		_, _ = d.PopBack()
		dropped++
	}
}
