// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package rowid implements the 128-bit, lexicographically ordered
// identifiers used throughout the chunk store: RowId for individual rows
// and ChunkId for whole chunks. Both share the same (time_ns, counter)
// shape and the same process-wide monotonic registry.
package rowid

import (
	"fmt"
	"sync"
	"time"
)

// ID is a 128-bit identifier of the form (TimeNS, Counter), compared
// lexicographically on TimeNS first and Counter second. RowId and ChunkId
// are both instances of this shape; they are kept as distinct named types
// so the compiler catches accidental mixing.
type ID struct {
	TimeNS  uint64
	Counter uint64
}

// Less reports whether id sorts strictly before other.
func (id ID) Less(other ID) bool {
	if id.TimeNS != other.TimeNS {
		return id.TimeNS < other.TimeNS
	}
	return id.Counter < other.Counter
}

// Compare returns -1, 0 or 1 following the usual comparator convention.
func (id ID) Compare(other ID) int {
	switch {
	case id.TimeNS < other.TimeNS:
		return -1
	case id.TimeNS > other.TimeNS:
		return 1
	case id.Counter < other.Counter:
		return -1
	case id.Counter > other.Counter:
		return 1
	default:
		return 0
	}
}

func (id ID) String() string {
	return fmt.Sprintf("%020d:%020d", id.TimeNS, id.Counter)
}

// Time returns the wall-clock instant this id's TimeNS component encodes.
func (id ID) Time() time.Time {
	return time.Unix(0, int64(id.TimeNS))
}

// RowId identifies a single row within a chunk. Unique across a process.
type RowId ID

// Less reports whether r sorts strictly before other.
func (r RowId) Less(other RowId) bool { return ID(r).Less(ID(other)) }

// Compare returns -1, 0 or 1.
func (r RowId) Compare(other RowId) int { return ID(r).Compare(ID(other)) }

func (r RowId) String() string { return ID(r).String() }

// Time returns the row's creation instant.
func (r RowId) Time() time.Time { return ID(r).Time() }

// ChunkId identifies a whole chunk, used for equality and deduplication.
type ChunkId ID

// Less reports whether c sorts strictly before other.
func (c ChunkId) Less(other ChunkId) bool { return ID(c).Less(ID(other)) }

// Compare returns -1, 0 or 1.
func (c ChunkId) Compare(other ChunkId) int { return ID(c).Compare(ID(other)) }

func (c ChunkId) String() string { return ID(c).String() }

// Time returns the chunk's creation instant.
func (c ChunkId) Time() time.Time { return ID(c).Time() }

// Registry issues strictly increasing RowId/ChunkId values for one process.
//
// Ordering is guaranteed even if the wall clock moves backwards: the
// registry clamps TimeNS to max(observed wall clock, last issued TimeNS),
// matching §4.2 of the specification.
type Registry struct {
	mu      sync.Mutex
	lastNS  uint64
	counter uint64
}

// NewRegistry returns a fresh, zeroed registry. Each process should
// normally use a single shared Registry (see Default) so that RowIds
// issued anywhere in the process remain globally ordered.
func NewRegistry() *Registry {
	return &Registry{}
}

// Next issues a new (time_ns, counter) pair, strictly greater than every
// pair previously issued by this registry.
func (reg *Registry) Next() ID {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := uint64(time.Now().UnixNano())
	if now <= reg.lastNS {
		// Clock has not advanced (or moved backwards): stay on the same
		// nanosecond and disambiguate with the counter.
		reg.counter++
	} else {
		reg.lastNS = now
		reg.counter = 0
	}

	return ID{TimeNS: reg.lastNS, Counter: reg.counter}
}

// NextRowId issues a new RowId.
func (reg *Registry) NextRowId() RowId { return RowId(reg.Next()) }

// NextChunkId issues a new ChunkId.
func (reg *Registry) NextChunkId() ChunkId { return ChunkId(reg.Next()) }

// process-wide default registry. Explicit lazy init (rather than a
// package-level `var defaultRegistry = NewRegistry()`) would work equally
// well here since NewRegistry has no dependency on init order, but the
// constructor is kept so callers who want isolated counters (tests) are
// never tempted to reach for global mutable state.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by chunk builders that
// do not supply their own.
func Default() *Registry { return defaultRegistry }
