// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package entitypath

import "testing"

func TestEntityPath_EqualAndHash(t *testing.T) {
	a := New("world", "camera", "image")
	b := New("world", "camera", "image")
	c := New("world", "camera")

	if !a.Equal(b) {
		t.Fatal("expected equal paths to compare equal")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("expected equal paths to hash identically")
	}
	if a.Equal(c) {
		t.Fatal("expected different-length paths to differ")
	}
}

func TestEntityPath_SeparatorAvoidsCollision(t *testing.T) {
	a := New("ab", "c")
	b := New("a", "bc")
	if a.Equal(b) {
		t.Fatal("did not expect different segmentations to be equal")
	}
	if a.Hash() == b.Hash() {
		t.Fatal("did not expect different segmentations to hash identically")
	}
}

func TestEntityPath_EmptyIsEmpty(t *testing.T) {
	if !New().IsEmpty() {
		t.Fatal("expected zero-part path to be empty")
	}
	if New("x").IsEmpty() {
		t.Fatal("expected non-empty path to not be empty")
	}
}

func TestEntityPath_String(t *testing.T) {
	if got, want := New("world", "camera").String(), "/world/camera"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := New().String(), "/"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
