// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package arrowcodec wraps github.com/apache/arrow-go/v18 as the
// Arrow-style column cell representation spec.md §3.4 describes Promise
// resolving to, and implements the §6.1 wire shape's round trip
// (Chunk -> record batch -> Chunk, spec.md §8 property 8). Wire/on-disk
// codecs proper are out of scope (spec.md §1); this package only makes
// the Promise/cell boundary and the round-trip property concrete.
package arrowcodec

import (
	"fmt"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/component"
)

// Promise is the opaque handle spec.md §3.4 describes: a reference to the
// chunk and component column a result row came from, plus the row's index
// within that chunk. Holding the chunk keeps it alive (shared by
// reference count, spec.md §9) past the store's read lock, independent of
// when or whether the promise is ever resolved.
type Promise struct {
	Chunk      *chunk.Chunk
	Descriptor component.Descriptor
	// Row is the row's index within Chunk (sparse row space, not the
	// component column's dense offset); DefaultResolver translates it
	// with Column.DenseIndex.
	Row int
}

// Resolver resolves a Promise into a typed cell value. Implementations
// may block or fail (spec.md §5 "Promises vs. blocking I/O"); the query
// cache is responsible for not holding its write lock across a call.
type Resolver func(Promise) (any, error)

// DefaultResolver extracts the Go-native value at Row from the promise's
// component column directly, synchronously: the data already lives in
// process memory (spec.md §9 "resolves synchronously if the resolver is
// pure"). Callers needing deferred/out-of-process resolution supply their
// own Resolver instead.
func DefaultResolver(p Promise) (any, error) {
	col, ok := p.Chunk.Components[p.Descriptor]
	if !ok {
		return nil, fmt.Errorf("arrowcodec: chunk %s has no component %s", p.Chunk.ID, p.Descriptor)
	}
	denseIdx, valid := col.DenseIndex(p.Row)
	if !valid {
		return nil, fmt.Errorf("arrowcodec: chunk %s row %d has no value for component %s",
			p.Chunk.ID, p.Row, p.Descriptor)
	}
	return cellAt(col.Data, denseIdx)
}
