// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package querycache

import (
	"sync"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/chunkstore"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/logging"
	"github.com/tomtom215/chunkstore/internal/metrics"
	"github.com/tomtom215/chunkstore/internal/query"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// Cache is the process-wide query cache sitting in front of a
// chunkstore.Store: it holds one CachedComponentResults per
// (query_signature, entity, component) key and keeps them consistent with
// the store via a StoreEvent subscription (spec.md §4.5).
type Cache struct {
	store *chunkstore.Store

	mu      sync.RWMutex
	entries map[Key]*CachedComponentResults

	subID chunkstore.SubscriberID

	// resolver is the circuit-breaker-guarded promise resolver every
	// entry populated through this Cache resolves promises with (see
	// Resolver, SPEC_FULL.md §C "PromiseResolver fault isolation").
	resolver *CircuitResolver
}

// New returns a Cache subscribed to store's events for invalidation. The
// subscription lives for the Cache's lifetime; call Close to unsubscribe.
func New(store *chunkstore.Store) *Cache {
	c := &Cache{
		store:    store,
		entries:  make(map[Key]*CachedComponentResults),
		resolver: NewCircuitResolver(arrowcodec.DefaultResolver, DefaultResolverConfig("querycache")),
	}
	c.subID = store.Subscribe(c.onStoreEvents)
	return c
}

// Resolver returns the circuit-breaker/backoff-guarded arrowcodec.Resolver
// every CachedComponentResults vended by this Cache should be resolved
// through, so a wedged or flaky resolution path degrades to a
// query.StatusError instead of blocking a cache population indefinitely
// (spec.md §5 "Promises vs. blocking I/O").
func (c *Cache) Resolver() arrowcodec.Resolver {
	return c.resolver.Resolver()
}

// Close unsubscribes from the store. The Cache must not be used afterward.
func (c *Cache) Close() {
	c.store.Unsubscribe(c.subID)
}

// GetOrCreate returns the entry for key, seeding it from the store's
// current query results the first time it is observed. Subsequent calls
// with the same key return the same entry (a cache hit, spec.md §4.5); a
// first-time seed counts as a miss.
func (c *Cache) GetOrCreate(path entitypath.EntityPath, comp component.Descriptor, sig Signature, fetch func() []query.ResultRow) *CachedComponentResults {
	key := keyFor(sig, path, comp)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.QueryCacheHits.Inc()
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		metrics.QueryCacheHits.Inc()
		return entry
	}

	metrics.QueryCacheMisses.Inc()
	entry = newCachedComponentResults()
	entry.seed(fetch())
	c.entries[key] = entry
	return entry
}

// TruncateAtTime removes all cached rows with time >= threshold across
// every entry (spec.md §4.5 "truncate_at_time").
func (c *Cache) TruncateAtTime(threshold int64) {
	c.mu.RLock()
	entries := make([]*CachedComponentResults, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	for _, e := range entries {
		e.truncateAtTime(threshold)
	}
}

// onStoreEvents implements chunkstore.Handler: on Addition, invalidate any
// key whose signature range contains the new chunk's time range; on
// Deletion, invalidate any key whose entry references the removed chunk
// (spec.md §4.5 "Invalidation").
func (c *Cache) onStoreEvents(events []chunkstore.StoreEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range events {
		ch := ev.Diff.Chunk
		if ch == nil {
			continue
		}
		switch ev.Diff.Kind {
		case chunkstore.Deletion:
			for key, entry := range c.entries {
				if entry.referencesChunk(ch.ID) {
					delete(c.entries, key)
					logging.Debug().Str("entity", key.PathStr).Msg("querycache: invalidated entry on chunk deletion")
				}
			}
		case chunkstore.Addition:
			for tl, tc := range ch.Timelines {
				rng := timeline.Range{Min: minInt64(tc.Times), Max: maxInt64(tc.Times)}
				for key, entry := range c.entries {
					if key.Sig.Timeline != tl {
						continue
					}
					sigRange := signatureRange(key.Sig)
					if rng.Intersects(sigRange) {
						delete(c.entries, key)
						_ = entry
						logging.Debug().Str("entity", key.PathStr).Msg("querycache: invalidated entry on overlapping addition")
					}
				}
			}
			// A static chunk declares zero timelines, so the loop above
			// never runs for it. A static row supersedes every temporal row
			// for its (entity, component) regardless of timeline (spec.md
			// §3.3), so any cached entry for that pair must be dropped here
			// too, not just on an overlapping temporal addition.
			if ch.IsStatic() {
				pathStr := ch.EntityPath.String()
				for comp := range ch.Components {
					for key, entry := range c.entries {
						if key.PathStr != pathStr || key.Comp != comp {
							continue
						}
						delete(c.entries, key)
						_ = entry
						logging.Debug().Str("entity", key.PathStr).Msg("querycache: invalidated entry on static addition")
					}
				}
			}
		}
	}
}

// signatureRange is the span of time a query's cached answer actually
// depends on: a range query depends on exactly [lo, hi]; a latest-at query
// depends on everything up to and including at, since a new row anywhere
// in (-inf, at] could become (or beat) the current answer.
func signatureRange(sig Signature) timeline.Range {
	if sig.IsRange {
		return timeline.Range{Min: sig.Lo, Max: sig.Hi}
	}
	return timeline.Range{Min: timeline.Static, Max: sig.At}
}

func minInt64(vs []int64) int64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt64(vs []int64) int64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
