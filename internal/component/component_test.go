// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package component

import "testing"

func TestDescriptor_Equal(t *testing.T) {
	a := WithArchetype("Points3D", "Position3D")
	b := WithArchetype("Points3D", "Position3D")
	c := New("Position3D")

	if !a.Equal(b) {
		t.Fatal("expected identical descriptors to be equal")
	}
	if a.Equal(c) {
		t.Fatal("expected archetype-scoped and bare descriptors to differ")
	}
}

func TestDescriptor_String(t *testing.T) {
	if got, want := New("Color").String(), "Color"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := WithArchetype("Points3D", "Position3D").String(), "Points3D:Position3D"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDescriptor_UsableAsMapKey(t *testing.T) {
	m := map[Descriptor]int{
		New("Color"):                      1,
		WithArchetype("Points3D", "Color"): 2,
	}
	if m[New("Color")] != 1 || m[WithArchetype("Points3D", "Color")] != 2 {
		t.Fatal("expected Descriptor to distinguish archetype-scoped keys")
	}
}
