// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunkstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/metrics"
	"github.com/tomtom215/chunkstore/internal/query"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// LatestAtQuery asks for the most recent row at or before At on Timeline
// (spec.md §3.4).
type LatestAtQuery struct {
	Timeline timeline.Timeline
	At       int64
}

// RangeQuery asks for every row in [Lo, Hi] on Timeline (spec.md §3.4).
type RangeQuery struct {
	Timeline timeline.Timeline
	Lo, Hi   int64
}

// entityEntry holds one entity's indices: a temporal chunk index per
// declared timeline (sorted ascending by that timeline's time-range min,
// spec.md §3.3) and a static chunk index keyed by component (highest
// RowId wins per component, spec.md §4.3 step 5).
type entityEntry struct {
	path     entitypath.EntityPath
	temporal map[timeline.Timeline][]*chunk.Chunk
	static   map[component.Descriptor]*chunk.Chunk

	knownTimelines  map[timeline.Timeline]bool
	knownComponents map[component.Descriptor]bool
}

func newEntityEntry(path entitypath.EntityPath) *entityEntry {
	return &entityEntry{
		path:            path,
		temporal:        make(map[timeline.Timeline][]*chunk.Chunk),
		static:          make(map[component.Descriptor]*chunk.Chunk),
		knownTimelines:  make(map[timeline.Timeline]bool),
		knownComponents: make(map[component.Descriptor]bool),
	}
}

// Store is the append-only ingestion and indexing layer (spec.md §4.3).
// The zero value is not usable; construct with New.
type Store struct {
	id       string
	mu       sync.RWMutex
	registry *rowid.Registry
	engine   *query.Engine

	entities   map[uint64][]*entityEntry
	chunksByID map[rowid.ChunkId]*chunk.Chunk

	subsMu sync.Mutex
	subs   map[SubscriberID]Handler

	genMu       sync.Mutex
	metadataGen uint64
	dataGen     uint64
	nextEventID uint64
}

// New returns an empty Store identified by id (used as StoreID on every
// emitted event), using the process-wide RowId/ChunkId registry.
func New(id string) *Store {
	return &Store{
		id:         id,
		registry:   rowid.Default(),
		engine:     query.NewEngine(),
		entities:   make(map[uint64][]*entityEntry),
		chunksByID: make(map[rowid.ChunkId]*chunk.Chunk),
		subs:       make(map[SubscriberID]Handler),
	}
}

// Registry returns the RowId/ChunkId registry this store issues ids from,
// so callers building chunks for insertion share the same monotonic
// counter.
func (s *Store) Registry() *rowid.Registry { return s.registry }

func (s *Store) entityFor(path entitypath.EntityPath, create bool) *entityEntry {
	h := path.Hash()
	for _, ent := range s.entities[h] {
		if ent.path.Equal(path) {
			return ent
		}
	}
	if !create {
		return nil
	}
	ent := newEntityEntry(path)
	s.entities[h] = append(s.entities[h], ent)
	return ent
}

func (s *Store) removeEntity(path entitypath.EntityPath) {
	h := path.Hash()
	list := s.entities[h]
	for i, ent := range list {
		if ent.path.Equal(path) {
			s.entities[h] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// InsertChunk validates and indexes c (spec.md §4.3 "Ingestion algorithm").
// A duplicate ChunkId is a silent no-op returning no events.
func (s *Store) InsertChunk(c *chunk.Chunk) ([]StoreEvent, error) {
	if c.EntityPath.IsEmpty() && c.Len() > 0 {
		return nil, fmt.Errorf("chunkstore: %w: entity_path must not be empty", chunk.ErrMalformed)
	}

	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.chunksByID[c.ID]; dup {
		return nil, nil
	}
	s.chunksByID[c.ID] = c

	ent := s.entityFor(c.EntityPath, true)

	var diffs []Diff
	bumpMeta := false

	if c.IsStatic() {
		for desc := range c.Components {
			if !ent.knownComponents[desc] {
				ent.knownComponents[desc] = true
				bumpMeta = true
			}
			existing, ok := ent.static[desc]
			if ok && maxRowID(existing).Compare(maxRowID(c)) >= 0 {
				// The existing static chunk already has the greater (or
				// equal) RowId for this component; the incoming chunk
				// contributes nothing here.
				continue
			}
			if ok {
				diffs = append(diffs, Diff{Kind: Deletion, Chunk: existing})
			}
			ent.static[desc] = c
			diffs = append(diffs, Diff{Kind: Addition, Chunk: c})
		}
	} else {
		for tl := range c.Timelines {
			if !ent.knownTimelines[tl] {
				ent.knownTimelines[tl] = true
				bumpMeta = true
			}
			ent.temporal[tl] = insertTemporalSorted(ent.temporal[tl], tl, c)
		}
		for desc := range c.Components {
			if !ent.knownComponents[desc] {
				ent.knownComponents[desc] = true
				bumpMeta = true
			}
		}
		diffs = append(diffs, Diff{Kind: Addition, Chunk: c})
	}

	events := s.publish(diffs, bumpMeta, true)

	metrics.ChunksTotal.WithLabelValues(c.EntityPath.String()).Inc()
	metrics.RowsTotal.Add(float64(c.Len()))
	metrics.RecordInsert(time.Since(start))

	return events, nil
}

// insertTemporalSorted inserts c into list, keeping it ordered ascending by
// c's time-range minimum on tl (spec.md §3.3); ties are resolved by stable
// insertion order.
func insertTemporalSorted(list []*chunk.Chunk, tl timeline.Timeline, c *chunk.Chunk) []*chunk.Chunk {
	rng, _ := c.TimeRange(tl)
	idx := sort.Search(len(list), func(i int) bool {
		iRng, _ := list[i].TimeRange(tl)
		return iRng.Min >= rng.Min
	})
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = c
	return list
}

// LatestAt answers a latest-at query for the given entity and components
// (spec.md §4.3 "Latest-at algorithm"). Absence yields an empty map, never
// an error.
func (s *Store) LatestAt(ctx context.Context, q LatestAtQuery, entity entitypath.EntityPath, comps []component.Descriptor) query.LatestAtResults {
	start := time.Now()
	results := make(query.LatestAtResults, len(comps))

	s.mu.RLock()
	ent := s.entityFor(entity, false)
	if ent == nil {
		s.mu.RUnlock()
		return results
	}

	remaining := make([]component.Descriptor, 0, len(comps))
	for _, d := range comps {
		if sc, ok := ent.static[d]; ok {
			if row, ok2 := query.StaticRow(sc, d); ok2 {
				results[d] = row
				continue
			}
		}
		remaining = append(remaining, d)
	}

	var candidates []*chunk.Chunk
	if len(remaining) > 0 {
		for _, c := range ent.temporal[q.Timeline] {
			if rng, ok := c.TimeRange(q.Timeline); ok && rng.Min <= q.At {
				candidates = append(candidates, c)
			}
		}
	}
	s.mu.RUnlock()

	if len(remaining) > 0 && len(candidates) > 0 {
		sub, err := s.engine.LatestAt(ctx, candidates, q.Timeline, q.At, remaining)
		if err == nil {
			for d, row := range sub {
				results[d] = row
			}
		}
	}

	metrics.RecordQuery("latest_at", time.Since(start))
	return results
}

// Range answers a range query for the given entity and components
// (spec.md §4.3 "Range algorithm"). A static row, if present, is included
// once per component regardless of the query's bounds.
func (s *Store) Range(ctx context.Context, q RangeQuery, entity entitypath.EntityPath, comps []component.Descriptor) query.RangeResults {
	start := time.Now()
	results := make(query.RangeResults, len(comps))

	s.mu.RLock()
	ent := s.entityFor(entity, false)
	if ent == nil {
		s.mu.RUnlock()
		return results
	}

	for _, d := range comps {
		if sc, ok := ent.static[d]; ok {
			if row, ok2 := query.StaticRow(sc, d); ok2 {
				results[d] = []query.ResultRow{row}
			}
		}
	}

	qRange := timeline.Range{Min: q.Lo, Max: q.Hi}
	var candidates []*chunk.Chunk
	for _, c := range ent.temporal[q.Timeline] {
		if rng, ok := c.TimeRange(q.Timeline); ok && rng.Intersects(qRange) {
			candidates = append(candidates, c)
		}
	}
	s.mu.RUnlock()

	if len(candidates) > 0 {
		sub, err := s.engine.Range(ctx, candidates, q.Timeline, q.Lo, q.Hi, comps)
		if err == nil {
			for d, rows := range sub {
				results[d] = append(results[d], rows...)
			}
		}
	}

	metrics.RecordQuery("range", time.Since(start))
	return results
}

// DropEntityPath removes every chunk belonging to entity, emitting one
// Deletion event per chunk (spec.md §4.3).
func (s *Store) DropEntityPath(entity entitypath.EntityPath) []StoreEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.entityFor(entity, false)
	if ent == nil {
		return nil
	}

	var diffs []Diff
	seen := make(map[rowid.ChunkId]bool)
	for _, list := range ent.temporal {
		for _, c := range list {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			diffs = append(diffs, Diff{Kind: Deletion, Chunk: c})
			delete(s.chunksByID, c.ID)
			metrics.RowsTotal.Sub(float64(c.Len()))
		}
	}
	for _, c := range ent.static {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		diffs = append(diffs, Diff{Kind: Deletion, Chunk: c})
		delete(s.chunksByID, c.ID)
	}
	metrics.ChunksTotal.DeleteLabelValues(entity.String())
	s.removeEntity(entity)

	return s.publish(diffs, true, true)
}

// Subscribe registers h to receive every future event batch, returning an
// id usable with Unsubscribe.
func (s *Store) Subscribe(h Handler) SubscriberID {
	id := SubscriberID(uuid.New())
	s.subsMu.Lock()
	s.subs[id] = h
	s.subsMu.Unlock()
	return id
}

// Unsubscribe removes a previously registered handler. Unsubscribing an
// unknown or already-removed id is a silent no-op (spec.md §6.2 "a handler
// dropped between calls is silently unregistered").
func (s *Store) Unsubscribe(id SubscriberID) {
	s.subsMu.Lock()
	delete(s.subs, id)
	s.subsMu.Unlock()
}

// publish assigns event ids and the next generation to diffs and delivers
// them to every current subscriber, atomically as one batch (spec.md §6.2).
// Callers must already hold s.mu for writing.
func (s *Store) publish(diffs []Diff, bumpMetadata, bumpData bool) []StoreEvent {
	if len(diffs) == 0 {
		return nil
	}

	s.genMu.Lock()
	if bumpMetadata {
		s.metadataGen++
	}
	if bumpData {
		s.dataGen++
	}
	gen := Generation{Metadata: s.metadataGen, Data: s.dataGen}

	events := make([]StoreEvent, len(diffs))
	for i, d := range diffs {
		s.nextEventID++
		events[i] = StoreEvent{StoreID: s.id, Generation: gen, EventID: s.nextEventID, Diff: d}
	}
	s.genMu.Unlock()

	s.subsMu.Lock()
	handlers := make([]Handler, 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subsMu.Unlock()

	for _, h := range handlers {
		h(events)
	}

	for _, e := range events {
		metrics.EventsPublished.WithLabelValues(e.Diff.Kind.String()).Inc()
	}
	return events
}

func maxRowID(c *chunk.Chunk) rowid.RowId {
	best := c.RowIds[0]
	for _, r := range c.RowIds[1:] {
		if r.Compare(best) > 0 {
			best = r
		}
	}
	return best
}

func minRowID(c *chunk.Chunk) rowid.RowId {
	best := c.RowIds[0]
	for _, r := range c.RowIds[1:] {
		if r.Less(best) {
			best = r
		}
	}
	return best
}
