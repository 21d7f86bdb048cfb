// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunkstore

import (
	"fmt"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/container"
	"github.com/tomtom215/chunkstore/internal/metrics"
	"github.com/tomtom215/chunkstore/internal/rowid"
)

// GCTarget bounds a single GC pass by a byte budget, a chunk-count budget
// (a number of chunks, not of store generations), or both; zero disables that
// dimension. ProtectLatest, when true, exempts static chunks (spec.md
// §4.3 "Garbage collection").
type GCTarget struct {
	ByteBudget    uint64
	ChunkBudget   uint64
	ProtectLatest bool
}

type gcCandidate struct {
	ent    *entityEntry
	c      *chunk.Chunk
	static bool
}

// GC drops the globally oldest-by-RowId chunks (oldest temporal chunks
// first, and static chunks too when !target.ProtectLatest) until both the
// byte and chunk budgets are satisfied, using internal/container.MinHeap
// ordered by each chunk's minimum RowId (spec.md §4.3 "identify the oldest
// temporal chunks by RowId globally across entities"). Each dropped chunk
// emits a Deletion event.
func (s *Store) GC(target GCTarget) []StoreEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[rowid.ChunkId]bool)
	heap := container.NewMinHeap(func(a, b gcCandidate) bool {
		return minRowID(a.c).Less(minRowID(b.c))
	})

	var totalBytes, totalChunks uint64
	for _, list := range s.entities {
		for _, ent := range list {
			for _, chunks := range ent.temporal {
				for _, c := range chunks {
					if seen[c.ID] {
						continue
					}
					seen[c.ID] = true
					totalBytes += c.HeapSizeBytes()
					totalChunks++
					heap.Push(gcCandidate{ent: ent, c: c})
				}
			}
			if !target.ProtectLatest {
				for _, c := range ent.static {
					if seen[c.ID] {
						continue
					}
					seen[c.ID] = true
					totalBytes += c.HeapSizeBytes()
					totalChunks++
					heap.Push(gcCandidate{ent: ent, c: c, static: true})
				}
			}
		}
	}

	var diffs []Diff
	for {
		overBytes := target.ByteBudget > 0 && totalBytes > target.ByteBudget
		overCount := target.ChunkBudget > 0 && totalChunks > target.ChunkBudget
		if !overBytes && !overCount {
			break
		}
		cand, ok := heap.Pop()
		if !ok {
			break
		}
		removeChunkFromEntity(cand.ent, cand.c, cand.static)
		delete(s.chunksByID, cand.c.ID)
		diffs = append(diffs, Diff{Kind: Deletion, Chunk: cand.c})
		totalBytes -= cand.c.HeapSizeBytes()
		totalChunks--
		metrics.ChunksTotal.WithLabelValues(cand.ent.path.String()).Dec()
		metrics.RowsTotal.Sub(float64(cand.c.Len()))
	}

	if len(diffs) == 0 {
		return nil
	}

	metrics.GCChunksDropped.Add(float64(len(diffs)))
	for _, d := range diffs {
		metrics.GCBytesFreed.Add(float64(d.Chunk.HeapSizeBytes()))
	}

	return s.publish(diffs, false, true)
}

func removeChunkFromEntity(ent *entityEntry, target *chunk.Chunk, static bool) {
	if static {
		for desc, c := range ent.static {
			if c.ID == target.ID {
				delete(ent.static, desc)
			}
		}
		return
	}
	for tl, list := range ent.temporal {
		out := list[:0]
		for _, c := range list {
			if c.ID != target.ID {
				out = append(out, c)
			}
		}
		ent.temporal[tl] = out
	}
}

// Compact merges the chunks identified by srcs into one new chunk via
// repeated Chunk.Concatenate, replacing them in the store's indices and
// publishing one Deletion per source followed by one Addition tagged with
// the Compacted bookkeeping
// (SPEC_FULL.md §D "explicit, not automatic compaction"). All srcs must
// share the same entity and static/temporal character, per
// Chunk.Concatenate's own precondition.
func (s *Store) Compact(srcs []rowid.ChunkId) (rowid.ChunkId, error) {
	if len(srcs) < 2 {
		return rowid.ChunkId{}, fmt.Errorf("chunkstore: compact requires at least 2 source chunks")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := make([]*chunk.Chunk, len(srcs))
	for i, id := range srcs {
		c, ok := s.chunksByID[id]
		if !ok {
			return rowid.ChunkId{}, fmt.Errorf("chunkstore: compact: unknown chunk %s", id)
		}
		chunks[i] = c
	}

	merged := chunks[0]
	var err error
	for _, c := range chunks[1:] {
		merged, err = merged.Concatenate(c, s.registry.NextChunkId())
		if err != nil {
			return rowid.ChunkId{}, fmt.Errorf("chunkstore: compact: %w", err)
		}
	}

	ent := s.entityFor(merged.EntityPath, false)
	if ent == nil {
		return rowid.ChunkId{}, fmt.Errorf("chunkstore: compact: entity %s not found", merged.EntityPath)
	}

	var diffs []Diff
	for _, c := range chunks {
		removeChunkFromEntity(ent, c, c.IsStatic())
		delete(s.chunksByID, c.ID)
		diffs = append(diffs, Diff{Kind: Deletion, Chunk: c})
	}

	s.chunksByID[merged.ID] = merged
	if merged.IsStatic() {
		for desc := range merged.Components {
			ent.static[desc] = merged
		}
	} else {
		for tl := range merged.Timelines {
			ent.temporal[tl] = insertTemporalSorted(ent.temporal[tl], tl, merged)
		}
	}
	diffs = append(diffs, Diff{
		Kind:      Addition,
		Chunk:     merged,
		Compacted: &Compacted{Srcs: srcs, New: merged.ID},
	})

	s.publish(diffs, false, true)
	return merged.ID, nil
}
