// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunkstore

import (
	"github.com/google/uuid"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/rowid"
)

// Generation is the store's (metadata_gen, data_gen) pair (spec.md §3.5):
// metadata_gen increases whenever a mutation introduces a timeline or
// component never seen before for that entity, and when DropEntityPath
// removes an entity; data_gen increases on every mutation. Consumers (notably internal/querycache) use this to decide
// whether derived state needs invalidating.
type Generation struct {
	Metadata uint64
	Data     uint64
}

// DiffKind distinguishes an Addition from a Deletion in a StoreEvent.
type DiffKind int

const (
	Addition DiffKind = iota
	Deletion
)

func (k DiffKind) String() string {
	if k == Deletion {
		return "deletion"
	}
	return "addition"
}

// Compacted records that an Addition event's chunk replaces one or more
// source chunks via an explicit Compact call (SPEC_FULL.md §D), rather than
// a plain insertion.
type Compacted struct {
	Srcs []rowid.ChunkId
	New  rowid.ChunkId
}

// Diff is one chunk-level change within a StoreEvent.
type Diff struct {
	Kind      DiffKind
	Chunk     *chunk.Chunk
	Compacted *Compacted
}

// StoreEvent is the ordered notification spec.md §3.5 describes. EventID is
// strictly increasing per store; Generation is non-decreasing.
type StoreEvent struct {
	StoreID    string
	Generation Generation
	EventID    uint64
	Diff       Diff
}

// SubscriberID identifies a registered Handler so it can later be removed
// with Unsubscribe. Backed by google/uuid so ids are unique across
// subscribe/unsubscribe churn within and across processes.
type SubscriberID uuid.UUID

func (id SubscriberID) String() string { return uuid.UUID(id).String() }

// Handler receives a batch of events published atomically by a single
// insert_chunk / drop_entity_path / gc / compact call (spec.md §6.2).
// Handlers must not mutate the store re-entrantly.
type Handler func(events []StoreEvent)
