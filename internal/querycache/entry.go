// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package querycache

import (
	"context"
	"reflect"
	"sync"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/container"
	"github.com/tomtom215/chunkstore/internal/logging"
	"github.com/tomtom215/chunkstore/internal/metrics"
	"github.com/tomtom215/chunkstore/internal/query"
	"github.com/tomtom215/chunkstore/internal/rowid"
)

// elemMode distinguishes a dense (T) materialization from a sparse
// (Option<T>, i.e. a validity-tagged T) one; spec.md §4.5's
// cached_dense/cached_sparse are mutually exclusive per key (§4.5 point 4).
type elemMode int

const (
	modeUnset elemMode = iota
	modeDense
	modeSparse
)

// sparseCell is one element of cached_sparse: an Option<T> (spec.md §4.5).
type sparseCell struct {
	Value any
	Valid bool
}

// reentrancyKey is a distinct context key type per CachedComponentResults
// pointer. spec.md §5 describes a thread-local reentrancy *counter*; Go
// goroutines have no thread-locals, so instead the call stack itself
// carries a context.Context, and re-entry into the write path for the
// same entry is detected by a boolean flag stashed under a key scoped to
// that entry's own address. This is equivalent for the work-stealing
// scenario spec.md §8 S6 describes (a resolver callback re-entering
// to_dense for the same key from the same logical call chain) without
// needing a counter, since Go's context propagation already nests
// correctly across re-entrant calls on one goroutine's stack. See
// DESIGN.md for why this diverges from a literal translation.
type reentrancyKey struct{ entry *CachedComponentResults }

func (cc *CachedComponentResults) withEntered(ctx context.Context) context.Context {
	return context.WithValue(ctx, reentrancyKey{entry: cc}, true)
}

func (cc *CachedComponentResults) alreadyEntered(ctx context.Context) bool {
	v, _ := ctx.Value(reentrancyKey{entry: cc}).(bool)
	return v
}

// CachedComponentResults is the per-key cache entry spec.md §4.5 describes:
// a deque of resolved (TimeInt, RowId) indices flanked by two queues of
// still-pending promises, plus lazily-typed dense/sparse decoded buffers.
type CachedComponentResults struct {
	mu sync.RWMutex

	indices *container.Deque[indexEntry] // sorted ascending

	promisesFront *container.Deque[promiseEntry] // pending resolutions on the low end
	promisesBack  *container.Deque[promiseEntry] // pending resolutions on the high end

	frontStatus query.Status
	backStatus  query.Status

	mode        elemMode
	elemType    reflect.Type
	cachedDense []any
	// cachedSparse holds one sparseCell per index when mode == modeSparse.
	cachedSparse []sparseCell

	// referencedChunks tracks every chunk ID a promise or resolved row in
	// this entry came from, so invalidation (spec.md §4.5 "on Deletion,
	// invalidate any key referencing the deleted chunk") can be decided
	// without re-walking promises.
	referencedChunks map[rowid.ChunkId]bool
}

func newCachedComponentResults() *CachedComponentResults {
	return &CachedComponentResults{
		indices:          container.NewDeque[indexEntry](),
		promisesFront:    container.NewDeque[promiseEntry](),
		promisesBack:     container.NewDeque[promiseEntry](),
		referencedChunks: make(map[rowid.ChunkId]bool),
	}
}

// seed populates the entry from a fresh query.LatestAtResults/RangeResults
// row set before any to_dense/to_sparse call. Rows arrive already sorted
// ascending by (data_time, RowId) per internal/query's contract.
func (cc *CachedComponentResults) seed(rows []query.ResultRow) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	for _, r := range rows {
		cc.indices.PushBack(indexEntry{Time: r.DataTime, Row: r.RowID})
		cc.promisesBack.PushBack(promiseEntry{
			indexEntry: indexEntry{Time: r.DataTime, Row: r.RowID},
			Promise:    r.Promise,
		})
		if r.Promise.Chunk != nil {
			cc.referencedChunks[r.Promise.Chunk.ID] = true
		}
	}
	if last, ok := cc.promisesBack.Back(); ok {
		cc.frontStatus = query.Status{Time: last.Time, State: query.StatusPending}
		cc.backStatus = query.Status{Time: last.Time, State: query.StatusPending}
	} else {
		cc.frontStatus = query.Status{State: query.StatusReady}
		cc.backStatus = query.Status{State: query.StatusReady}
	}
}

// ToDense materializes unresolved promises as T. Resolution of each queue
// stops at the first promise the resolver errors on: that promise stays
// queued and the matching status reports StatusError. Implements the
// to_dense::<T> contract of spec.md §4.5: try the write path first, fall
// back to reading the outer frame's data on detected reentrancy.
func ToDense[T any](ctx context.Context, cc *CachedComponentResults, resolver arrowcodec.Resolver) ([]T, []indexEntry, query.Status, query.Status) {
	return toTyped[T](ctx, cc, resolver, modeDense)
}

// ToSparse materializes unresolved promises as Option<T>. Every resolved
// cell is recorded with Valid set; resolution stops at the first promise
// the resolver errors on, as in ToDense.
func ToSparse[T any](ctx context.Context, cc *CachedComponentResults, resolver arrowcodec.Resolver) ([]Opt[T], []indexEntry, query.Status, query.Status) {
	_, idx, front, back := toTyped[T](ctx, cc, resolver, modeSparse)
	if !cc.alreadyEntered(ctx) {
		cc.mu.RLock()
		defer cc.mu.RUnlock()
	}
	out := make([]Opt[T], len(cc.cachedSparse))
	for i, cell := range cc.cachedSparse {
		out[i] = Opt[T]{Value: asT[T](cell.Value), Valid: cell.Valid}
	}
	return out, idx, front, back
}

// Opt is the Go rendering of spec.md §4.5's `Option<T>` sparse cell.
type Opt[T any] struct {
	Value T
	Valid bool
}

func asT[T any](v any) T {
	t, _ := v.(T)
	return t
}

func toTyped[T any](ctx context.Context, cc *CachedComponentResults, resolver arrowcodec.Resolver, want elemMode) ([]T, []indexEntry, query.Status, query.Status) {
	if cc.alreadyEntered(ctx) {
		metrics.QueryCacheReentrantCalls.Inc()
		// The outer frame on this call stack holds cc.mu for writing and is
		// paused inside the resolver, so the entry is read without locking.
		return readViewLocked[T](cc)
	}

	acquired := cc.mu.TryLock()
	if !acquired {
		// A genuinely different goroutine holds the write lock (the
		// context check above already ruled out same-call-stack
		// reentrancy): block for real, per spec.md §4.5 point 1's write
		// path, then fall through to populate as usual once acquired.
		cc.mu.Lock()
	}

	var t T
	elemType := reflect.TypeOf(t)
	if cc.mode == modeUnset {
		cc.mode = want
		cc.elemType = elemType
	} else if cc.mode != want || (cc.elemType != nil && cc.elemType != elemType) {
		cc.mu.Unlock()
		logging.Warn().
			Str("wanted", elemType.String()).
			Str("cached", cc.elemType.String()).
			Msg("querycache: component type mismatch, ignoring call")
		out, idx, front, back := readView[T](cc)
		front.State, front.Err = query.StatusError, ErrComponentTypeMismatch
		back.State, back.Err = query.StatusError, ErrComponentTypeMismatch
		return out, idx, front, back
	}

	childCtx := cc.withEntered(ctx)
	cc.populateLocked(childCtx, resolver)
	cc.mu.Unlock()

	return readView[T](cc)
}

// populateLocked drains promisesFront/promisesBack, stopping at the first
// Pending or Error (spec.md §4.5 point 2). Callers must hold cc.mu for
// writing.
func (cc *CachedComponentResults) populateLocked(_ context.Context, resolver arrowcodec.Resolver) {
	if len(cc.cachedDense) == 0 && len(cc.cachedSparse) == 0 && cc.indices.Len() > 0 {
		if cc.mode == modeDense {
			cc.cachedDense = make([]any, 0, cc.indices.Len())
		} else {
			cc.cachedSparse = make([]sparseCell, 0, cc.indices.Len())
		}
	}

	drain := func(queue *container.Deque[promiseEntry], push func(any, bool)) query.Status {
		var lastTime int64
		drained := false
		for {
			pe, ok := queue.Front()
			if !ok {
				break
			}
			val, err := resolver(pe.Promise)
			if err != nil {
				metrics.QueryCachePromiseErrors.Inc()
				return query.Status{Time: pe.Time, State: query.StatusError, Err: err}
			}
			queue.PopFront()
			push(val, true)
			lastTime = pe.Time
			drained = true
		}
		if !drained {
			return query.Status{State: query.StatusReady}
		}
		return query.Status{Time: lastTime, State: query.StatusReady}
	}

	pushFront := func(v any, ok bool) {
		if cc.mode == modeDense {
			cc.cachedDense = append([]any{v}, cc.cachedDense...)
		} else {
			cc.cachedSparse = append([]sparseCell{{Value: v, Valid: ok}}, cc.cachedSparse...)
		}
	}
	pushBack := func(v any, ok bool) {
		if cc.mode == modeDense {
			cc.cachedDense = append(cc.cachedDense, v)
		} else {
			cc.cachedSparse = append(cc.cachedSparse, sparseCell{Value: v, Valid: ok})
		}
	}

	cc.frontStatus = drain(cc.promisesFront, pushFront)
	cc.backStatus = drain(cc.promisesBack, pushBack)
}

func readView[T any](cc *CachedComponentResults) ([]T, []indexEntry, query.Status, query.Status) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return readViewLocked[T](cc)
}

// readViewLocked is readView without locking; the caller holds cc.mu.
func readViewLocked[T any](cc *CachedComponentResults) ([]T, []indexEntry, query.Status, query.Status) {
	idx := cc.indices.ToSlice()

	out := make([]T, len(cc.cachedDense))
	for i, v := range cc.cachedDense {
		out[i] = asT[T](v)
	}
	return out, idx, cc.frontStatus, cc.backStatus
}

// truncateAtTime drops every cached row with time >= threshold and trims
// both promise queues to match (spec.md §4.5 "truncate_at_time"). Entries
// are sorted ascending by construction, so trimming from the back until the
// predicate fails is equivalent to filtering the whole deque.
func (cc *CachedComponentResults) truncateAtTime(threshold int64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.indices.TrimBack(func(e indexEntry) bool { return e.Time >= threshold })
	keep := cc.indices.Len()
	if keep < len(cc.cachedDense) {
		cc.cachedDense = cc.cachedDense[:keep]
	}
	if keep < len(cc.cachedSparse) {
		cc.cachedSparse = cc.cachedSparse[:keep]
	}

	dropStale := func(p promiseEntry) bool { return p.Time >= threshold }
	cc.promisesFront.TrimBack(dropStale)
	cc.promisesBack.TrimBack(dropStale)
}

// referencesChunk reports whether any row currently tracked by this entry
// came from chunk id.
func (cc *CachedComponentResults) referencesChunk(id rowid.ChunkId) bool {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.referencedChunks[id]
}

// entryRange returns the [start, end) index range of entries with time in
// the inclusive range [lo, hi],
// treating a leading static row (Time == timeline.Static) as inside every
// query (spec.md §4.5 "Entry range lookup").
func (cc *CachedComponentResults) entryRange(lo, hi int64) (int, int) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	entries := cc.indices.ToSlice()
	start := 0
	if len(entries) > 0 && entries[0].Time == staticSentinel {
		start = 1
	}
	loIdx := start
	for loIdx < len(entries) && entries[loIdx].Time < lo {
		loIdx++
	}
	hiIdx := loIdx
	for hiIdx < len(entries) && entries[hiIdx].Time <= hi {
		hiIdx++
	}
	if start == 1 {
		return 0, hiIdx
	}
	return loIdx, hiIdx
}
