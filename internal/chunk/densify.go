// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunk

import (
	"fmt"

	"github.com/tomtom215/chunkstore/internal/component"
)

// Densify returns a read-only view of c containing only the rows that hold
// a value for desc, in their original order. Unlike RowSlice/ComponentSlice
// it is not itself part of spec.md; it is a supplemented feature
// (SPEC_FULL.md §D) grounded on re_chunk's archetype-query helpers, useful
// for callers that want a dense iteration over one component without
// tracking validity themselves.
func (c *Chunk) Densify(desc component.Descriptor) (*Chunk, error) {
	col, ok := c.Components[desc]
	if !ok {
		return c.RowSlice(0, 0)
	}
	idx := make([]int, 0, col.Data.Len())
	for row := 0; row < c.Len(); row++ {
		if col.IsValid(row) {
			idx = append(idx, row)
		}
	}
	dense, err := c.permuteAll(idx, c.isSorted)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: densify %s: %w", c.ID, desc, err)
	}
	return dense, nil
}
