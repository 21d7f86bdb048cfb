// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunk

import (
	"fmt"

	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// RowSlice returns a new Chunk covering rows [lo, hi) (spec.md §4.1). The
// selected rows are copied into new column arrays; no column buffer is
// shared with c. An empty slice (lo == hi) is permitted and yields a
// zero-row Chunk.
func (c *Chunk) RowSlice(lo, hi int) (*Chunk, error) {
	if lo < 0 || hi > c.Len() || lo > hi {
		return nil, fmt.Errorf("%w: row_slice(%d,%d) out of bounds for chunk of length %d",
			ErrMalformed, lo, hi, c.Len())
	}
	idx := make([]int, hi-lo)
	for i := range idx {
		idx[i] = lo + i
	}
	return c.permuteAll(idx, c.isSorted)
}

// TimeSlice returns a new Chunk containing only the rows whose value on tl
// falls within [lo, hi] inclusive. Rows on other timelines, and static
// rows, are unaffected by this filter on timelines they don't declare.
func (c *Chunk) TimeSlice(tl timeline.Timeline, lo, hi int64) (*Chunk, error) {
	tc, ok := c.Timelines[tl]
	if !ok {
		return nil, fmt.Errorf("%w: chunk does not declare timeline %s", ErrMalformed, tl.Name)
	}
	var idx []int
	for i, t := range tc.Times {
		if t >= lo && t <= hi {
			idx = append(idx, i)
		}
	}
	return c.permuteAll(idx, c.isSorted)
}

// ComponentSlice returns a new Chunk retaining only the given component
// columns (all rows, all timelines are kept; only the component set
// narrows).
func (c *Chunk) ComponentSlice(descs ...component.Descriptor) (*Chunk, error) {
	want := make(map[component.Descriptor]bool, len(descs))
	for _, d := range descs {
		want[d] = true
	}
	newComponents := make(map[component.Descriptor]*Column, len(descs))
	for desc, col := range c.Components {
		if want[desc] {
			newComponents[desc] = col
		}
	}
	return &Chunk{
		ID:         c.ID,
		EntityPath: c.EntityPath,
		isSorted:   c.isSorted,
		RowIds:     c.RowIds,
		Timelines:  c.Timelines,
		Components: newComponents,
	}, nil
}
