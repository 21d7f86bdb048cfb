// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package chunk implements Chunk (spec.md §3.2, §4.1): the immutable,
// dense, column-oriented batch of rows for one entity that is the core
// store's unit of storage. A Chunk owns its row-id index, one TimeColumn
// per declared timeline, and one sparse Column per logged component.
package chunk

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// Chunk is an immutable batch of N rows for exactly one entity.
type Chunk struct {
	ID         rowid.ChunkId
	EntityPath entitypath.EntityPath
	isSorted   bool
	RowIds     []rowid.RowId
	Timelines  map[timeline.Timeline]TimeColumn
	Components map[component.Descriptor]*Column

	heapOnce  sync.Once
	heapBytes uint64
}

// New builds and validates a Chunk. sortedHint, if non-nil, asserts the
// caller's claim about row ordering; it is still verified in O(N). Pass
// nil to have New determine ordering itself.
func New(
	id rowid.ChunkId,
	path entitypath.EntityPath,
	sortedHint *bool,
	rowIds []rowid.RowId,
	timelines map[timeline.Timeline][]int64,
	components map[component.Descriptor]ColumnInput,
) (*Chunk, error) {
	n := len(rowIds)

	if path.IsEmpty() && n > 0 {
		return nil, fmt.Errorf("%w: entity_path must not be empty for a non-empty chunk", ErrMalformed)
	}

	actuallySorted := isAscending(rowIds)
	if sortedHint != nil && *sortedHint != actuallySorted {
		return nil, fmt.Errorf("%w: declared is_sorted=%v does not match actual row_id order",
			ErrMalformed, *sortedHint)
	}

	tcols := make(map[timeline.Timeline]TimeColumn, len(timelines))
	for tl, times := range timelines {
		if len(times) != n {
			return nil, fmt.Errorf("%w: timeline %s: length %d != row count %d",
				ErrMalformed, tl.Name, len(times), n)
		}
		tc, err := newTimeColumn(tl.Name, times)
		if err != nil {
			return nil, err
		}
		tcols[tl] = tc
	}

	cols := make(map[component.Descriptor]*Column, len(components))
	for desc, in := range components {
		col, err := newColumn(desc, in.Validity, in.Data, n)
		if err != nil {
			return nil, err
		}
		cols[desc] = col
	}

	return &Chunk{
		ID:         id,
		EntityPath: path,
		isSorted:   actuallySorted,
		RowIds:     rowIds,
		Timelines:  tcols,
		Components: cols,
	}, nil
}

// ColumnInput is the raw material New builds a Column from: a validity
// mask over the chunk's N rows plus the dense Arrow array holding one
// value per set bit, in row order.
type ColumnInput struct {
	Validity *roaring.Bitmap
	Data     arrow.Array
}

func isAscending(ids []rowid.RowId) bool {
	for i := 1; i < len(ids); i++ {
		if !ids[i-1].Less(ids[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of rows N.
func (c *Chunk) Len() int { return len(c.RowIds) }

// IsStatic reports whether the chunk declares zero timelines.
func (c *Chunk) IsStatic() bool { return len(c.Timelines) == 0 }

// IsSorted reports whether RowIds is in ascending order.
func (c *Chunk) IsSorted() bool { return c.isSorted }

// HeapSizeBytes returns the chunk's memoized heap size, computing it on
// first call (spec.md §3.2, §5 "Every Chunk memoizes its heap size
// atomically"). sync.Once makes concurrent first-readers block on a
// single computation rather than racing.
func (c *Chunk) HeapSizeBytes() uint64 {
	c.heapOnce.Do(func() {
		atomic.StoreUint64(&c.heapBytes, c.measureHeapBytes())
	})
	return atomic.LoadUint64(&c.heapBytes)
}

func (c *Chunk) measureHeapBytes() uint64 {
	var total uint64
	total += uint64(len(c.RowIds)) * 16
	for _, tc := range c.Timelines {
		total += uint64(len(tc.Times)) * 8
	}
	for _, col := range c.Components {
		// Arrow arrays don't expose a portable per-element byte width
		// across all types without a type switch, so each element is
		// counted at a fixed estimated width. The resulting figure is an
		// estimate, and it is what chunkstore's byte-budget GC and the
		// arrowcodec batch metadata use.
		const estimatedElementBytes = 8
		total += uint64(col.Data.Len()) * estimatedElementBytes
		total += col.Validity.GetSizeInBytes()
	}
	return total
}

// TimeRange returns the cached [min, max] for the given timeline, and
// whether the chunk declares that timeline at all (spec.md §8 property 3).
func (c *Chunk) TimeRange(tl timeline.Timeline) (timeline.Range, bool) {
	tc, ok := c.Timelines[tl]
	if !ok {
		return timeline.Range{}, false
	}
	return tc.Range, true
}

// RowIdRangePerComponent scans each component's validity mask to find the
// first and last valid row, returning per-component RowId bounds narrower
// than the chunk's overall range (spec.md §4.1). Used by the store to
// build tight secondary indices.
func (c *Chunk) RowIdRangePerComponent() map[component.Descriptor]struct{ Min, Max rowid.RowId } {
	out := make(map[component.Descriptor]struct{ Min, Max rowid.RowId }, len(c.Components))
	for desc, col := range c.Components {
		first, last, ok := col.firstLastValid()
		if !ok {
			continue
		}
		out[desc] = struct{ Min, Max rowid.RowId }{Min: c.RowIds[first], Max: c.RowIds[last]}
	}
	return out
}

// SortIfUnsorted returns a Chunk with rows in ascending RowId order,
// permuting row_ids and every column identically (spec.md §4.1). If c is
// already sorted, it is returned unchanged (idempotent, spec.md §8
// property 1).
func (c *Chunk) SortIfUnsorted() (*Chunk, error) {
	if c.isSorted {
		return c, nil
	}

	idx := make([]int, c.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return c.RowIds[idx[a]].Less(c.RowIds[idx[b]]) })

	return c.permuteAll(idx, true)
}

// permuteAll builds a new Chunk with rows reordered/filtered per idx
// (values index into c's row space); sorted asserts the caller's claim
// about the result's ordering.
func (c *Chunk) permuteAll(idx []int, sorted bool) (*Chunk, error) {
	newRowIds := make([]rowid.RowId, len(idx))
	for i, old := range idx {
		newRowIds[i] = c.RowIds[old]
	}

	newTimelines := make(map[timeline.Timeline]TimeColumn, len(c.Timelines))
	for tl, tc := range c.Timelines {
		newTimelines[tl] = tc.permute(idx)
	}

	newComponents := make(map[component.Descriptor]*Column, len(c.Components))
	for desc, col := range c.Components {
		nc, err := col.permute(idx)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		newComponents[desc] = nc
	}

	return &Chunk{
		ID:         c.ID,
		EntityPath: c.EntityPath,
		isSorted:   sorted && isAscending(newRowIds),
		RowIds:     newRowIds,
		Timelines:  newTimelines,
		Components: newComponents,
	}, nil
}
