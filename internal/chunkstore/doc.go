// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package chunkstore implements the append-only ingestion and indexing
// layer (spec.md §4.3): it holds every inserted Chunk behind a
// reader-writer lock, keyed by entity and organized into a per-(entity,
// timeline) temporal index plus a per-entity static index, and emits
// StoreEvents to subscribers on every mutation. Query resolution itself is
// delegated to internal/query's pure, lock-free search functions: Store
// walks its indices under a read lock to gather a candidate []*chunk.Chunk
// slice, releases the lock, then hands that slice to the query engine.
package chunkstore
