// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package container

import "testing"

func TestMinHeap_PopsInOrder(t *testing.T) {
	h := NewMinHeap(func(a, b int) bool { return a < b })
	for _, v := range []int{5, 3, 8, 1, 9, 2} {
		h.Push(v)
	}
	want := []int{1, 2, 3, 5, 8, 9}
	for _, w := range want {
		v, ok := h.Pop()
		if !ok || v != w {
			t.Fatalf("Pop() = (%d, %v), want (%d, true)", v, ok, w)
		}
	}
	if _, ok := h.Pop(); ok {
		t.Fatal("expected Pop on empty heap to report !ok")
	}
}

func TestMinHeap_Peek(t *testing.T) {
	h := NewMinHeap(func(a, b int) bool { return a < b })
	h.Push(4)
	h.Push(1)
	h.Push(7)
	v, ok := h.Peek()
	if !ok || v != 1 {
		t.Fatalf("Peek() = (%d, %v), want (1, true)", v, ok)
	}
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (Peek must not remove)", h.Len())
	}
}

func TestMinHeap_CustomOrdering(t *testing.T) {
	type pair struct{ key, val int }
	h := NewMinHeap(func(a, b pair) bool { return a.key < b.key })
	h.Push(pair{key: 3, val: 30})
	h.Push(pair{key: 1, val: 10})
	h.Push(pair{key: 2, val: 20})

	v, _ := h.Pop()
	if v.val != 10 {
		t.Fatalf("Pop().val = %d, want 10", v.val)
	}
}
