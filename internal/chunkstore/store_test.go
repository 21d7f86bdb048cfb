// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunkstore

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

func buildTemporalChunk(t *testing.T, s *Store, path entitypath.EntityPath, tl timeline.Timeline, times []int64, desc component.Descriptor, values []int64) *chunk.Chunk {
	t.Helper()
	rowIds := make([]rowid.RowId, len(times))
	for i := range rowIds {
		rowIds[i] = s.registry.NextRowId()
	}
	b := array.NewInt64Builder(mem)
	defer b.Release()
	validity := roaring.New()
	for i, v := range values {
		validity.Add(uint32(i))
		b.Append(v)
	}
	c, err := chunk.New(s.registry.NextChunkId(), path, nil, rowIds,
		map[timeline.Timeline][]int64{tl: times},
		map[component.Descriptor]chunk.ColumnInput{desc: {Validity: validity, Data: b.NewArray()}})
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}

func buildStaticChunk(t *testing.T, s *Store, path entitypath.EntityPath, desc component.Descriptor, value int64) *chunk.Chunk {
	t.Helper()
	rowIds := []rowid.RowId{s.registry.NextRowId()}
	b := array.NewInt64Builder(mem)
	defer b.Release()
	validity := roaring.New()
	validity.Add(0)
	b.Append(value)
	c, err := chunk.New(s.registry.NextChunkId(), path, nil, rowIds, nil,
		map[component.Descriptor]chunk.ColumnInput{desc: {Validity: validity, Data: b.NewArray()}})
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}

func TestInsertChunkDeduplicatesByChunkID(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")
	c := buildTemporalChunk(t, s, path, tl, []int64{1, 2}, desc, []int64{10, 20})

	evs1, err := s.InsertChunk(c)
	if err != nil || len(evs1) == 0 {
		t.Fatalf("first insert: events=%v err=%v", evs1, err)
	}
	evs2, err := s.InsertChunk(c)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if len(evs2) != 0 {
		t.Errorf("expected duplicate insert to produce no events, got %d", len(evs2))
	}
}

func TestLatestAtWithGap(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")

	c1 := buildTemporalChunk(t, s, path, tl, []int64{1, 2}, desc, []int64{10, 20})
	c2 := buildTemporalChunk(t, s, path, tl, []int64{10, 11}, desc, []int64{100, 110})
	if _, err := s.InsertChunk(c1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertChunk(c2); err != nil {
		t.Fatal(err)
	}

	res := s.LatestAt(context.Background(), LatestAtQuery{Timeline: tl, At: 5}, path, []component.Descriptor{desc})
	row, ok := res[desc]
	if !ok || row.DataTime != 2 {
		t.Fatalf("expected latest-at(5) to land on time 2, got %+v ok=%v", row, ok)
	}

	res = s.LatestAt(context.Background(), LatestAtQuery{Timeline: tl, At: 10}, path, []component.Descriptor{desc})
	row, ok = res[desc]
	if !ok || row.DataTime != 10 {
		t.Fatalf("expected latest-at(10) to land on time 10, got %+v ok=%v", row, ok)
	}
}

func TestStaticPrecedenceByRowID(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Label")

	temporal := buildTemporalChunk(t, s, path, tl, []int64{1}, desc, []int64{1})
	static := buildStaticChunk(t, s, path, desc, 99)

	if _, err := s.InsertChunk(temporal); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertChunk(static); err != nil {
		t.Fatal(err)
	}

	res := s.LatestAt(context.Background(), LatestAtQuery{Timeline: tl, At: 1000}, path, []component.Descriptor{desc})
	row, ok := res[desc]
	if !ok {
		t.Fatal("expected a result")
	}
	if row.DataTime != timeline.Static {
		t.Errorf("expected static row to win (static was inserted with the greater RowId), got data_time=%d", row.DataTime)
	}
}

func TestRangeFullSpanReturnsEverything(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")

	c1 := buildTemporalChunk(t, s, path, tl, []int64{1, 2}, desc, []int64{10, 20})
	c2 := buildTemporalChunk(t, s, path, tl, []int64{10, 11}, desc, []int64{100, 110})
	if _, err := s.InsertChunk(c1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertChunk(c2); err != nil {
		t.Fatal(err)
	}

	res := s.Range(context.Background(), RangeQuery{Timeline: tl, Lo: -1 << 62, Hi: 1 << 62}, path, []component.Descriptor{desc})
	rows := res[desc]
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows across both chunks, got %d", len(rows))
	}
}

func TestDropEntityPathRemovesAllChunks(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")
	c := buildTemporalChunk(t, s, path, tl, []int64{1}, desc, []int64{10})
	if _, err := s.InsertChunk(c); err != nil {
		t.Fatal(err)
	}

	evs := s.DropEntityPath(path)
	if len(evs) != 1 || evs[0].Diff.Kind != Deletion {
		t.Fatalf("expected one Deletion event, got %+v", evs)
	}

	res := s.LatestAt(context.Background(), LatestAtQuery{Timeline: tl, At: 1000}, path, []component.Descriptor{desc})
	if len(res) != 0 {
		t.Errorf("expected no results after drop, got %+v", res)
	}
}

func TestGCDropsOldestFirstAndProtectsStatic(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")

	older := buildTemporalChunk(t, s, path, tl, []int64{1}, desc, []int64{10})
	newer := buildTemporalChunk(t, s, path, tl, []int64{2}, desc, []int64{20})
	static := buildStaticChunk(t, s, path, component.New("Label"), 1)

	for _, c := range []*chunk.Chunk{older, newer, static} {
		if _, err := s.InsertChunk(c); err != nil {
			t.Fatal(err)
		}
	}

	evs := s.GC(GCTarget{ChunkBudget: 1, ProtectLatest: true})
	if len(evs) != 1 {
		t.Fatalf("expected exactly 1 deletion, got %d", len(evs))
	}
	if evs[0].Diff.Chunk.ID != older.ID {
		t.Errorf("expected the older chunk to be dropped first")
	}

	res := s.LatestAt(context.Background(), LatestAtQuery{Timeline: tl, At: 1000}, path, []component.Descriptor{component.New("Label")})
	if _, ok := res[component.New("Label")]; !ok {
		t.Error("expected the static row to survive GC under protect_latest")
	}
}

func TestEventIDStrictlyIncreasing(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")

	var lastID uint64
	s.Subscribe(func(events []StoreEvent) {
		for _, e := range events {
			if e.EventID <= lastID {
				t.Errorf("event_id did not strictly increase: prev=%d got=%d", lastID, e.EventID)
			}
			lastID = e.EventID
		}
	})

	for i := 0; i < 5; i++ {
		c := buildTemporalChunk(t, s, path, tl, []int64{int64(i)}, desc, []int64{int64(i * 10)})
		if _, err := s.InsertChunk(c); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := New("test")
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("p")
	desc := component.New("Position3D")

	c := buildTemporalChunk(t, s, path, tl, []int64{1, 2}, desc, []int64{10, 20})
	if _, err := s.InsertChunk(c); err != nil {
		t.Fatal(err)
	}

	batches, err := s.SnapshotEntity(path)
	if err != nil {
		t.Fatalf("SnapshotEntity: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}

	dst := New("restored")
	if _, err := dst.RestoreSnapshot(batches); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	res := dst.LatestAt(context.Background(), LatestAtQuery{Timeline: tl, At: 1000}, path, []component.Descriptor{desc})
	row, ok := res[desc]
	if !ok || row.DataTime != 2 {
		t.Fatalf("expected the restored store to answer latest-at with time 2, got %+v ok=%v", row, ok)
	}
}
