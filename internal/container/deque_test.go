// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package container

import "testing"

func TestDeque_PushPopOrder(t *testing.T) {
	d := NewDeque[int]()
	d.PushBack(1)
	d.PushBack(2)
	d.PushBack(3)
	d.PushFront(0)

	if d.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", d.Len())
	}

	want := []int{0, 1, 2, 3}
	for _, w := range want {
		v, ok := d.PopFront()
		if !ok || v != w {
			t.Fatalf("PopFront() = (%d, %v), want (%d, true)", v, ok, w)
		}
	}
	if d.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", d.Len())
	}
	if _, ok := d.PopFront(); ok {
		t.Fatal("expected PopFront on empty deque to report !ok")
	}
}

func TestDeque_PopBack(t *testing.T) {
	d := NewDeque[string]()
	d.PushBack("a")
	d.PushBack("b")
	d.PushBack("c")

	v, ok := d.PopBack()
	if !ok || v != "c" {
		t.Fatalf("PopBack() = (%q, %v), want (\"c\", true)", v, ok)
	}
	if front, _ := d.Front(); front != "a" {
		t.Fatalf("Front() = %q, want \"a\"", front)
	}
	if back, _ := d.Back(); back != "b" {
		t.Fatalf("Back() = %q, want \"b\"", back)
	}
}

func TestDeque_ToSlice(t *testing.T) {
	d := NewDeque[int]()
	for i := 0; i < 5; i++ {
		d.PushBack(i)
	}
	got := d.ToSlice()
	want := []int{0, 1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ToSlice()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDeque_TrimBack(t *testing.T) {
	d := NewDeque[int]()
	for i := 0; i < 10; i++ {
		d.PushBack(i)
	}
	dropped := d.TrimBack(func(v int) bool { return v >= 7 })
	if dropped != 3 {
		t.Fatalf("TrimBack dropped = %d, want 3", dropped)
	}
	if back, _ := d.Back(); back != 6 {
		t.Fatalf("Back() after TrimBack = %d, want 6", back)
	}
	if d.Len() != 7 {
		t.Fatalf("Len() after TrimBack = %d, want 7", d.Len())
	}
}
