// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package query

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

var mem = memory.NewGoAllocator()

func int64Chunk(t *testing.T, id rowid.ChunkId, path entitypath.EntityPath, tl timeline.Timeline, times []int64, rowIds []rowid.RowId, desc component.Descriptor, values []int64) *chunk.Chunk {
	t.Helper()
	b := array.NewInt64Builder(mem)
	defer b.Release()
	validity := roaring.New()
	for i, v := range values {
		if v != 0 {
			validity.Add(uint32(i))
			b.Append(v)
		}
	}
	c, err := chunk.New(id, path, nil, rowIds, map[timeline.Timeline][]int64{tl: times},
		map[component.Descriptor]chunk.ColumnInput{desc: {Validity: validity, Data: b.NewArray()}})
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}

func TestEngineLatestAtTieBreakByRowId(t *testing.T) {
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("cam")
	desc := component.New("Position3D")
	// two rows share data_time=5; row 2 has the greater RowId and should win.
	rowIds := []rowid.RowId{{TimeNS: 1, Counter: 1}, {TimeNS: 1, Counter: 2}}
	c := int64Chunk(t, rowid.ChunkId{TimeNS: 1, Counter: 1}, path, tl,
		[]int64{5, 5}, rowIds, desc, []int64{10, 20})

	e := NewEngine()
	res, err := e.LatestAt(context.Background(), []*chunk.Chunk{c}, tl, 10, []component.Descriptor{desc})
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	row, ok := res[desc]
	if !ok {
		t.Fatalf("expected a result for %s", desc)
	}
	if row.RowID.Compare(rowIds[1]) != 0 {
		t.Errorf("expected tie-break to prefer RowId %v, got %v", rowIds[1], row.RowID)
	}
}

func TestEngineLatestAtRespectsAtBound(t *testing.T) {
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("cam")
	desc := component.New("Position3D")
	rowIds := []rowid.RowId{{TimeNS: 1, Counter: 1}, {TimeNS: 1, Counter: 2}}
	c := int64Chunk(t, rowid.ChunkId{TimeNS: 1, Counter: 1}, path, tl,
		[]int64{3, 9}, rowIds, desc, []int64{100, 200})

	e := NewEngine()
	res, err := e.LatestAt(context.Background(), []*chunk.Chunk{c}, tl, 5, []component.Descriptor{desc})
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	row, ok := res[desc]
	if !ok || row.DataTime != 3 {
		t.Fatalf("expected the row at time 3 to qualify for at=5, got %+v ok=%v", row, ok)
	}
}

func TestEngineRangeSortedAscending(t *testing.T) {
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("cam")
	desc := component.New("Position3D")
	rowIds := []rowid.RowId{{TimeNS: 1, Counter: 1}, {TimeNS: 1, Counter: 2}, {TimeNS: 1, Counter: 3}}
	c := int64Chunk(t, rowid.ChunkId{TimeNS: 1, Counter: 1}, path, tl,
		[]int64{9, 1, 5}, rowIds, desc, []int64{900, 100, 500})

	e := NewEngine()
	res, err := e.Range(context.Background(), []*chunk.Chunk{c}, tl, 0, 10, []component.Descriptor{desc})
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	rows := res[desc]
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].DataTime > rows[i].DataTime {
			t.Errorf("rows not sorted ascending by data_time: %+v", rows)
		}
	}
}

func TestStaticRowPrefersLowestValidRow(t *testing.T) {
	path := entitypath.New("cam")
	desc := component.New("Label")
	rowIds := []rowid.RowId{{TimeNS: 1, Counter: 1}, {TimeNS: 1, Counter: 2}, {TimeNS: 1, Counter: 3}}
	b := array.NewInt64Builder(mem)
	validity := roaring.New()
	validity.Add(1)
	validity.Add(2)
	b.Append(42)
	b.Append(43)
	c, err := chunk.New(rowid.ChunkId{TimeNS: 1, Counter: 1}, path, nil, rowIds, nil,
		map[component.Descriptor]chunk.ColumnInput{desc: {Validity: validity, Data: b.NewArray()}})
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	if !c.IsStatic() {
		t.Fatal("expected a chunk with no timelines to be static")
	}
	row, ok := StaticRow(c, desc)
	if !ok {
		t.Fatal("expected a static row")
	}
	if row.DataTime != timeline.Static {
		t.Errorf("expected DataTime to be the Static sentinel, got %d", row.DataTime)
	}
	if row.RowID.Compare(rowIds[1]) != 0 {
		t.Errorf("expected the lowest valid row %v, got %v", rowIds[1], row.RowID)
	}
}
