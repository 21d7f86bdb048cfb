// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package entitypath implements EntityPath (spec.md §3.1): an ordered
// sequence of path parts identifying a logical entity such as
// "/world/camera/image". The store keys on a 64-bit hash internally
// (see Hash) and retains the full path only for display.
package entitypath

import "hash/maphash"

// seed is process-wide so that two EntityPath values with the same parts
// hash identically within one process, which is all the store requires
// (hashes are never persisted or compared across processes). No
// third-party hashing library observed in the retrieval pack fits this
// better than hash/maphash, which is purpose-built for exactly this
// in-process, non-persisted use (see DESIGN.md).
var seed = maphash.MakeSeed()

// EntityPath is an ordered, immutable sequence of path parts.
type EntityPath struct {
	parts []string
}

// New builds an EntityPath from already-split parts.
func New(parts ...string) EntityPath {
	cp := make([]string, len(parts))
	copy(cp, parts)
	return EntityPath{parts: cp}
}

// Parts returns a copy of the path's parts.
func (p EntityPath) Parts() []string {
	cp := make([]string, len(p.parts))
	copy(cp, p.parts)
	return cp
}

// IsEmpty reports whether the path has zero parts. An empty EntityPath is
// never a valid target for insertion (spec.md §4.3 step 1).
func (p EntityPath) IsEmpty() bool { return len(p.parts) == 0 }

// Equal reports whether p and other name the same entity.
func (p EntityPath) Equal(other EntityPath) bool {
	if len(p.parts) != len(other.parts) {
		return false
	}
	for i, part := range p.parts {
		if part != other.parts[i] {
			return false
		}
	}
	return true
}

// Hash returns the 64-bit hash the store keys on internally. Two equal
// paths always hash identically within one process; unequal paths may
// (rarely) collide, in which case callers must fall back to Equal.
func (p EntityPath) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	for _, part := range p.parts {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0}) // separator so ("a","bc") != ("ab","c")
	}
	return h.Sum64()
}

// String renders the path in "/a/b/c" form. The root (empty path) renders
// as "/".
func (p EntityPath) String() string {
	if len(p.parts) == 0 {
		return "/"
	}
	out := make([]byte, 0, 16*len(p.parts))
	for _, part := range p.parts {
		out = append(out, '/')
		out = append(out, part...)
	}
	return string(out)
}
