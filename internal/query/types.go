// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package query implements the pure, lock-free search algorithms spec.md
// §4.4 describes: latest-at and range lookups over a set of chunks already
// selected and filtered by internal/chunkstore's indices. This package
// never touches the store's indices or locks directly; it only walks the
// []*chunk.Chunk slices handed to it, which keeps the store <-> query
// relationship one-directional and avoids a circular import.
package query

import (
	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/rowid"
)

// ResultRow is one component's resolved answer at a point in time: the
// data_time it was logged at, the RowId that logged it (used to break ties
// between equal data_times, spec.md §4.4 step 2), and a Promise that lazily
// resolves to the actual cell value (spec.md §3.4).
type ResultRow struct {
	DataTime int64
	RowID    rowid.RowId
	Promise  arrowcodec.Promise
}

// LatestAtResults maps each queried component to the single ResultRow that
// answers a latest-at query, absent for components with no qualifying row.
type LatestAtResults map[component.Descriptor]ResultRow

// RangeResults maps each queried component to every ResultRow falling in a
// range query's bounds, sorted ascending by (data_time, RowId).
type RangeResults map[component.Descriptor][]ResultRow
