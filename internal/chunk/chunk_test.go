// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunk

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

func int64Array(values ...int64) *array.Int64 {
	b := array.NewInt64Builder(allocator)
	defer b.Release()
	for _, v := range values {
		b.Append(v)
	}
	return b.NewArray().(*array.Int64)
}

func rid(ns, counter uint64) rowid.RowId {
	return rowid.RowId{TimeNS: ns, Counter: counter}
}

func positionDesc() component.Descriptor { return component.New("Position3D") }

var frame = timeline.New("frame", timeline.Sequence)

func buildSimpleChunk(t *testing.T, ids []rowid.RowId, frames []int64, posValues []int64, posValidRows []int) *Chunk {
	t.Helper()
	validity := roaring.New()
	for _, r := range posValidRows {
		validity.Add(uint32(r))
	}
	data := int64Array(posValues...)
	c, err := New(
		rowid.ChunkId(rid(1, 0)),
		entitypath.New("p"),
		nil,
		ids,
		map[timeline.Timeline][]int64{frame: frames},
		map[component.Descriptor]ColumnInput{positionDesc(): {Validity: validity, Data: data}},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_RejectsMismatchedTimelineLength(t *testing.T) {
	validity := roaring.New()
	validity.Add(0)
	_, err := New(
		rowid.ChunkId(rid(1, 0)),
		entitypath.New("p"),
		nil,
		[]rowid.RowId{rid(10, 0)},
		map[timeline.Timeline][]int64{frame: {1, 2}},
		map[component.Descriptor]ColumnInput{positionDesc(): {Validity: validity, Data: int64Array(1)}},
	)
	if err == nil {
		t.Fatal("expected error for mismatched timeline length")
	}
}

func TestNew_RejectsStaticSentinelInTimeColumn(t *testing.T) {
	validity := roaring.New()
	validity.Add(0)
	_, err := New(
		rowid.ChunkId(rid(1, 0)),
		entitypath.New("p"),
		nil,
		[]rowid.RowId{rid(10, 0)},
		map[timeline.Timeline][]int64{frame: {timeline.Static}},
		map[component.Descriptor]ColumnInput{positionDesc(): {Validity: validity, Data: int64Array(1)}},
	)
	if err == nil {
		t.Fatal("expected error for STATIC sentinel in a temporal column")
	}
}

func TestNew_RejectsAllNullComponentWhenNonEmpty(t *testing.T) {
	_, err := New(
		rowid.ChunkId(rid(1, 0)),
		entitypath.New("p"),
		nil,
		[]rowid.RowId{rid(10, 0)},
		map[timeline.Timeline][]int64{frame: {10}},
		map[component.Descriptor]ColumnInput{positionDesc(): {Validity: roaring.New(), Data: int64Array()}},
	)
	if err == nil {
		t.Fatal("expected error: component column with zero valid rows on a non-empty chunk")
	}
}

func TestSortIfUnsorted_IdempotentAndAscending(t *testing.T) {
	ids := []rowid.RowId{rid(30, 0), rid(10, 0), rid(20, 0)}
	c := buildSimpleChunk(t, ids, []int64{30, 10, 20}, []int64{3, 1, 2}, []int{0, 1, 2})

	if c.IsSorted() {
		t.Fatal("expected freshly built out-of-order chunk to report unsorted")
	}

	sorted1, err := c.SortIfUnsorted()
	if err != nil {
		t.Fatalf("SortIfUnsorted() error = %v", err)
	}
	if !sorted1.IsSorted() {
		t.Fatal("expected sorted chunk to report IsSorted")
	}
	for i := 1; i < sorted1.Len(); i++ {
		if !sorted1.RowIds[i-1].Less(sorted1.RowIds[i]) {
			t.Fatalf("row_ids not strictly ascending at %d: %v", i, sorted1.RowIds)
		}
	}

	sorted2, err := sorted1.SortIfUnsorted()
	if err != nil {
		t.Fatalf("second SortIfUnsorted() error = %v", err)
	}
	if len(sorted1.RowIds) != len(sorted2.RowIds) {
		t.Fatal("expected idempotent sort to preserve row count")
	}
	for i := range sorted1.RowIds {
		if sorted1.RowIds[i] != sorted2.RowIds[i] {
			t.Fatalf("sorting twice changed row %d: %v vs %v", i, sorted1.RowIds[i], sorted2.RowIds[i])
		}
	}
}

func TestTimeRange_MatchesMinMax(t *testing.T) {
	ids := []rowid.RowId{rid(10, 0), rid(20, 0), rid(30, 0)}
	c := buildSimpleChunk(t, ids, []int64{50, 5, 25}, []int64{1, 2, 3}, []int{0, 1, 2})

	rng, ok := c.TimeRange(frame)
	if !ok {
		t.Fatal("expected chunk to declare timeline frame")
	}
	if rng.Min != 5 || rng.Max != 50 {
		t.Fatalf("TimeRange() = %+v, want min=5 max=50", rng)
	}
}

func TestRowSlice(t *testing.T) {
	ids := []rowid.RowId{rid(10, 0), rid(20, 0), rid(30, 0)}
	c := buildSimpleChunk(t, ids, []int64{10, 20, 30}, []int64{1, 2, 3}, []int{0, 1, 2})

	s, err := c.RowSlice(1, 3)
	if err != nil {
		t.Fatalf("RowSlice() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("RowSlice len = %d, want 2", s.Len())
	}
	if s.RowIds[0] != ids[1] || s.RowIds[1] != ids[2] {
		t.Fatalf("RowSlice row_ids = %v, want %v", s.RowIds, ids[1:])
	}
}

func TestRowIdRangePerComponent_NarrowerThanChunk(t *testing.T) {
	ids := []rowid.RowId{rid(10, 0), rid(20, 0), rid(30, 0)}
	c := buildSimpleChunk(t, ids, []int64{10, 20, 30}, []int64{2, 3}, []int{1, 2})

	ranges := c.RowIdRangePerComponent()
	r, ok := ranges[positionDesc()]
	if !ok {
		t.Fatal("expected a range for Position3D")
	}
	if r.Min != ids[1] || r.Max != ids[2] {
		t.Fatalf("range = %+v, want [%v, %v]", r, ids[1], ids[2])
	}
}

func TestDensify_DropsNullRows(t *testing.T) {
	ids := []rowid.RowId{rid(10, 0), rid(20, 0), rid(30, 0)}
	c := buildSimpleChunk(t, ids, []int64{10, 20, 30}, []int64{1, 3}, []int{0, 2})

	d, err := c.Densify(positionDesc())
	if err != nil {
		t.Fatalf("Densify() error = %v", err)
	}
	if d.Len() != 2 {
		t.Fatalf("Densify len = %d, want 2", d.Len())
	}
	if d.RowIds[0] != ids[0] || d.RowIds[1] != ids[2] {
		t.Fatalf("Densify row_ids = %v, want [%v %v]", d.RowIds, ids[0], ids[2])
	}
}

func TestConcatenate(t *testing.T) {
	c1 := buildSimpleChunk(t, []rowid.RowId{rid(10, 0)}, []int64{10}, []int64{1}, []int{0})
	c2 := buildSimpleChunk(t, []rowid.RowId{rid(20, 0)}, []int64{20}, []int64{2}, []int{0})

	out, err := c1.Concatenate(c2, rowid.ChunkId(rid(99, 0)))
	if err != nil {
		t.Fatalf("Concatenate() error = %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Concatenate len = %d, want 2", out.Len())
	}
	if !out.IsSorted() {
		t.Fatal("expected concatenation of two single-row ascending chunks to be sorted")
	}
}

func TestHeapSizeBytes_MemoizedAndPositive(t *testing.T) {
	c := buildSimpleChunk(t, []rowid.RowId{rid(10, 0)}, []int64{10}, []int64{1}, []int{0})
	a := c.HeapSizeBytes()
	b := c.HeapSizeBytes()
	if a != b {
		t.Fatalf("HeapSizeBytes() not stable across calls: %d vs %d", a, b)
	}
	if a == 0 {
		t.Fatal("expected non-zero heap size for a non-empty chunk")
	}
}
