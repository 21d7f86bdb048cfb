// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunkstore

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/rowid"
)

// SnapshotEntity renders every chunk currently indexed for entity as Arrow
// record batches via arrowcodec.ChunkToBatch (spec.md §6.1's wire shape),
// static chunks first. The returned batches are exactly what
// RestoreSnapshot consumes to repopulate a store (SPEC_FULL.md §D "store
// snapshot/restore").
func (s *Store) SnapshotEntity(entity entitypath.EntityPath) ([]arrow.Record, error) {
	s.mu.RLock()
	ent := s.entityFor(entity, false)
	if ent == nil {
		s.mu.RUnlock()
		return nil, nil
	}

	seen := make(map[rowid.ChunkId]bool)
	var chunks []*chunk.Chunk
	for _, c := range ent.static {
		if !seen[c.ID] {
			seen[c.ID] = true
			chunks = append(chunks, c)
		}
	}
	for _, list := range ent.temporal {
		for _, c := range list {
			if !seen[c.ID] {
				seen[c.ID] = true
				chunks = append(chunks, c)
			}
		}
	}
	s.mu.RUnlock()

	batches := make([]arrow.Record, 0, len(chunks))
	for _, c := range chunks {
		rec, err := arrowcodec.ChunkToBatch(c)
		if err != nil {
			return nil, fmt.Errorf("chunkstore: snapshot entity %s: %w", entity, err)
		}
		batches = append(batches, rec)
	}
	return batches, nil
}

// RestoreSnapshot decodes batches (as produced by SnapshotEntity) back into
// chunks via arrowcodec.ChunkFromBatch and inserts each one, returning the
// combined StoreEvents. Each decoded chunk is assigned a fresh ChunkId from
// this store's registry, so restoring into the store that produced the
// snapshot never collides with the originals.
func (s *Store) RestoreSnapshot(batches []arrow.Record) ([]StoreEvent, error) {
	var events []StoreEvent
	for _, rec := range batches {
		c, err := arrowcodec.ChunkFromBatch(rec, s.registry)
		if err != nil {
			return events, fmt.Errorf("chunkstore: restore snapshot: %w", err)
		}
		evs, err := s.InsertChunk(c)
		if err != nil {
			return events, fmt.Errorf("chunkstore: restore snapshot: %w", err)
		}
		events = append(events, evs...)
	}
	return events, nil
}
