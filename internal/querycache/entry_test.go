// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package querycache

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/query"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

var mem = memory.NewGoAllocator()

func oneRowChunk(t *testing.T, tns uint64, ctr uint64, val int64) *chunk.Chunk {
	t.Helper()
	tl := timeline.New("frame", timeline.Sequence)
	path := entitypath.New("cam")
	desc := component.New("Position3D")
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Append(val)
	validity := roaring.New()
	validity.Add(0)
	c, err := chunk.New(rowid.ChunkId{TimeNS: tns, Counter: ctr}, path, nil,
		[]rowid.RowId{{TimeNS: tns, Counter: ctr}},
		map[timeline.Timeline][]int64{tl: {int64(ctr)}},
		map[component.Descriptor]chunk.ColumnInput{desc: {Validity: validity, Data: b.NewArray()}})
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}

func rowsFromChunks(desc component.Descriptor, chunks ...*chunk.Chunk) []query.ResultRow {
	rows := make([]query.ResultRow, len(chunks))
	for i, c := range chunks {
		rows[i] = query.ResultRow{
			DataTime: c.Timelines[timeline.New("frame", timeline.Sequence)].Times[0],
			RowID:    c.RowIds[0],
			Promise:  arrowcodec.Promise{Chunk: c, Descriptor: desc, Row: 0},
		}
	}
	return rows
}

func TestToDenseResolvesAllPromises(t *testing.T) {
	desc := component.New("Position3D")
	c1 := oneRowChunk(t, 1, 1, 10)
	c2 := oneRowChunk(t, 1, 2, 20)

	cc := newCachedComponentResults()
	cc.seed(rowsFromChunks(desc, c1, c2))

	dense, idx, front, back := ToDense[int64](context.Background(), cc, arrowcodec.DefaultResolver)
	if len(dense) != 2 || dense[0] != 10 || dense[1] != 20 {
		t.Fatalf("expected [10 20], got %v", dense)
	}
	if len(idx) != 2 {
		t.Fatalf("expected 2 indices, got %d", len(idx))
	}
	if front.State != query.StatusReady || back.State != query.StatusReady {
		t.Errorf("expected both statuses ready after full resolution, got front=%v back=%v", front.State, back.State)
	}
}

func TestComponentTypeMismatchLogsAndNoOps(t *testing.T) {
	desc := component.New("Position3D")
	c1 := oneRowChunk(t, 1, 1, 10)

	cc := newCachedComponentResults()
	cc.seed(rowsFromChunks(desc, c1))

	ToDense[int64](context.Background(), cc, arrowcodec.DefaultResolver)
	if cc.mode != modeDense {
		t.Fatal("expected mode to be set to dense after first call")
	}

	// Requesting a different element type for the same key must not panic
	// or repopulate; it logs and returns a view sized to what's already
	// cached, with zero values where the stored type doesn't assert to
	// the newly requested one.
	out, idx, _, _ := ToDense[string](context.Background(), cc, arrowcodec.DefaultResolver)
	if len(out) != len(idx) {
		t.Errorf("expected a type-mismatch call to not repopulate, got out=%v idx=%v", out, idx)
	}
}

func TestReentrantCallDoesNotDeadlock(t *testing.T) {
	desc := component.New("Position3D")
	c1 := oneRowChunk(t, 1, 1, 10)

	cc := newCachedComponentResults()
	cc.seed(rowsFromChunks(desc, c1))

	var innerDense []int64
	resolver := func(p arrowcodec.Promise) (any, error) {
		// Simulate a work-stealing resolver that re-enters ToDense for the
		// same key while the outer call's write lock is held.
		ctxHeld := context.Background()
		ctxHeld = cc.withEntered(ctxHeld)
		d, _, _, _ := ToDense[int64](ctxHeld, cc, arrowcodec.DefaultResolver)
		innerDense = d
		return arrowcodec.DefaultResolver(p)
	}

	done := make(chan struct{})
	go func() {
		ToDense[int64](context.Background(), cc, resolver)
		close(done)
	}()
	<-done

	if innerDense != nil && len(innerDense) != 0 {
		// The reentrant read path sees whatever the outer frame has
		// populated so far; it must not itself attempt to populate.
		t.Logf("reentrant call observed partial view: %v", innerDense)
	}
}

func TestTruncateAtTimeDropsTrailingRows(t *testing.T) {
	desc := component.New("Position3D")
	c1 := oneRowChunk(t, 1, 1, 10)
	c2 := oneRowChunk(t, 1, 2, 20)
	c3 := oneRowChunk(t, 1, 3, 30)

	cc := newCachedComponentResults()
	cc.seed(rowsFromChunks(desc, c1, c2, c3))
	ToDense[int64](context.Background(), cc, arrowcodec.DefaultResolver)

	cc.truncateAtTime(3)

	cc.mu.RLock()
	defer cc.mu.RUnlock()
	if cc.indices.Len() != 2 {
		t.Fatalf("expected 2 rows to remain after truncating at time 3, got %d", cc.indices.Len())
	}
	if len(cc.cachedDense) != cc.indices.Len() {
		t.Errorf("expected cached_dense to track indices length: dense=%d indices=%d", len(cc.cachedDense), cc.indices.Len())
	}
}

func TestEntryRangeTreatsStaticAsAlwaysInside(t *testing.T) {
	cc := newCachedComponentResults()
	cc.indices.PushBack(indexEntry{Time: timeline.Static, Row: rowid.RowId{}})
	cc.indices.PushBack(indexEntry{Time: 5, Row: rowid.RowId{TimeNS: 1, Counter: 1}})
	cc.indices.PushBack(indexEntry{Time: 10, Row: rowid.RowId{TimeNS: 1, Counter: 2}})
	lo, hi := cc.entryRange(5, 10)
	if lo != 0 || hi != 3 {
		t.Errorf("expected the static row to be included in the range, got [%d, %d)", lo, hi)
	}
}
