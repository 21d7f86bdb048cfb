// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package timeline

import (
	"math"
	"testing"
)

func TestKind_String(t *testing.T) {
	cases := map[Kind]string{
		Sequence:    "sequence",
		DurationNs:  "duration_ns",
		TimestampNs: "timestamp_ns",
		Kind(99):    "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestTimeInt_IsStatic(t *testing.T) {
	if !TimeInt(Static).IsStatic() {
		t.Fatal("expected Static sentinel to report IsStatic")
	}
	if TimeInt(0).IsStatic() {
		t.Fatal("did not expect 0 to report IsStatic")
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 10, Max: 20}
	if !r.Contains(10) || !r.Contains(20) || !r.Contains(15) {
		t.Fatal("expected bounds to be inclusive")
	}
	if r.Contains(9) || r.Contains(21) {
		t.Fatal("did not expect out-of-range values to be contained")
	}
}

func TestRange_Intersects(t *testing.T) {
	a := Range{Min: 0, Max: 10}
	b := Range{Min: 10, Max: 20}
	c := Range{Min: 11, Max: 20}
	if !a.Intersects(b) {
		t.Fatal("expected touching ranges to intersect")
	}
	if a.Intersects(c) {
		t.Fatal("did not expect disjoint ranges to intersect")
	}
}

func TestFull(t *testing.T) {
	f := Full()
	if f.Min != math.MinInt64 || f.Max != math.MaxInt64 {
		t.Fatalf("Full() = %+v, want unbounded range", f)
	}
	if !f.Contains(0) || !f.Contains(math.MinInt64) || !f.Contains(math.MaxInt64) {
		t.Fatal("expected Full() to contain any int64 value")
	}
}
