// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunk

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// Concatenate appends other after c, element-wise column by column.
// Defined only when both chunks share EntityPath and the same
// static/temporal character (spec.md §4.1); used by the store's explicit
// Compact operation (SPEC_FULL.md §D) to merge small chunks. Because rows
// are appended rather than reordered, each component's dense data needs no
// gather: the two source dense arrays are concatenated in place via
// array.Concatenate and the validity bitmaps are OR'd with other's shifted
// by c's row count.
func (c *Chunk) Concatenate(other *Chunk, newID rowid.ChunkId) (*Chunk, error) {
	if !c.EntityPath.Equal(other.EntityPath) {
		return nil, fmt.Errorf("%w: concatenate requires matching entity_path", ErrMalformed)
	}
	if c.IsStatic() != other.IsStatic() {
		return nil, fmt.Errorf("%w: concatenate requires matching static/temporal character", ErrMalformed)
	}

	rowIds := make([]rowid.RowId, 0, c.Len()+other.Len())
	rowIds = append(rowIds, c.RowIds...)
	rowIds = append(rowIds, other.RowIds...)

	sorted := c.isSorted && other.isSorted
	if c.Len() > 0 && other.Len() > 0 {
		sorted = sorted && !other.RowIds[0].Less(c.RowIds[c.Len()-1])
	}

	timelines, err := concatTimelines(c, other)
	if err != nil {
		return nil, err
	}

	components, err := concatComponents(c, other)
	if err != nil {
		return nil, err
	}

	return New(newID, c.EntityPath, &sorted, rowIds, timelines, components)
}

func concatTimelines(c, other *Chunk) (map[timeline.Timeline][]int64, error) {
	seen := make(map[timeline.Timeline]bool, len(c.Timelines)+len(other.Timelines))
	for tl := range c.Timelines {
		seen[tl] = true
	}
	for tl := range other.Timelines {
		seen[tl] = true
	}

	timelines := make(map[timeline.Timeline][]int64, len(seen))
	for tl := range seen {
		a, aok := c.Timelines[tl]
		b, bok := other.Timelines[tl]
		if !aok || !bok {
			return nil, fmt.Errorf("%w: concatenate requires both chunks to declare timeline %s",
				ErrMalformed, tl.Name)
		}
		times := make([]int64, 0, len(a.Times)+len(b.Times))
		times = append(times, a.Times...)
		times = append(times, b.Times...)
		timelines[tl] = times
	}
	return timelines, nil
}

func concatComponents(c, other *Chunk) (map[component.Descriptor]ColumnInput, error) {
	descs := make(map[component.Descriptor]bool, len(c.Components)+len(other.Components))
	for d := range c.Components {
		descs[d] = true
	}
	for d := range other.Components {
		descs[d] = true
	}

	shift := uint32(c.Len())
	out := make(map[component.Descriptor]ColumnInput, len(descs))
	for desc := range descs {
		aCol, aok := c.Components[desc]
		bCol, bok := other.Components[desc]

		validity := roaring.New()
		var arrays []arrow.Array
		if aok {
			validity.Or(aCol.Validity)
			arrays = append(arrays, aCol.Data)
		}
		if bok {
			shifted := roaring.New()
			it := bCol.Validity.Iterator()
			for it.HasNext() {
				shifted.Add(it.Next() + shift)
			}
			validity.Or(shifted)
			arrays = append(arrays, bCol.Data)
		}

		data, err := array.Concatenate(arrays, allocator)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", desc, err)
		}
		out[desc] = ColumnInput{Validity: validity, Data: data}
	}
	return out, nil
}
