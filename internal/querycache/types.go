// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package querycache implements the lazy, thread-safe query result cache
// spec.md §4.5 describes: a per-(query_signature, entity, component) cache
// of deserialized column data sitting downstream of internal/query's
// index-offset results, handling deferred Promise resolution, reentrant
// access from work-stealing executors, and invalidation on
// internal/chunkstore.StoreEvents.
package querycache

import (
	"errors"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// staticSentinel mirrors timeline.Static: a leading index entry at this
// time value is the entity's static row, which entryRange treats as
// inside every query (spec.md §4.5 "Entry range lookup").
const staticSentinel = timeline.Static

// ErrComponentTypeMismatch is returned when a cache entry already
// materialized as one element type T is asked for a different type
// (spec.md §7 "the cache is single-typed per key"). Recovery is log + no-op
// at the call site; the entry's existing data is left untouched.
var ErrComponentTypeMismatch = errors.New("querycache: component type mismatch for cache key")

// Signature identifies the query a cache key was computed for: exactly one
// of LatestAt or Range is populated, mirroring spec.md §4.5's
// `LatestAt(timeline, at) | Range(timeline, lo, hi)`.
type Signature struct {
	Timeline timeline.Timeline
	IsRange  bool
	At       int64 // valid when !IsRange
	Lo, Hi   int64 // valid when IsRange
}

// LatestAtSignature builds the signature for a latest-at query.
func LatestAtSignature(tl timeline.Timeline, at int64) Signature {
	return Signature{Timeline: tl, At: at}
}

// RangeSignature builds the signature for a range query.
func RangeSignature(tl timeline.Timeline, lo, hi int64) Signature {
	return Signature{Timeline: tl, IsRange: true, Lo: lo, Hi: hi}
}

// Key is the full cache key: (query_signature, entity, component).
// EntityPath embeds an unexported slice and so is not comparable; PathStr
// (its canonical "/a/b/c" rendering) stands in for it as the map-key
// component. EntityPath.String() is injective only over paths whose parts
// contain no '/'; entitypath.New does not reject such parts, so for
// example New("a/b") and New("a", "b") share a key.
type Key struct {
	Sig     Signature
	PathStr string
	Comp    component.Descriptor
}

func keyFor(sig Signature, path entitypath.EntityPath, comp component.Descriptor) Key {
	return Key{Sig: sig, PathStr: path.String(), Comp: comp}
}

// indexEntry is one element of a CachedComponentResults.indices deque:
// spec.md §4.5's `(TimeInt, RowId)`.
type indexEntry struct {
	Time int64
	Row  rowid.RowId
}

// promiseEntry pairs an unresolved Promise with the index it will occupy
// once resolved (spec.md §4.5's `((TimeInt, RowId), Promise)`).
type promiseEntry struct {
	indexEntry
	Promise arrowcodec.Promise
}
