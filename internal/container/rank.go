// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package container

// RankIndex answers "how many set bits precede index i" in O(log n) over a
// fixed validity pattern, used to translate a component's sparse row index
// into its offset in the component's dense backing array. Adapted from the
// teacher's internal/cache/fenwick.go prefix-sum tree (there used for
// running access-count totals); here built once from a chunk's frozen
// validity bitmap and never mutated afterwards, so unlike the teacher's
// version it carries no mutex — a chunk's columns never change after
// construction (spec.md §4.1, Chunk immutability).
type RankIndex struct {
	tree  []int32 // 1-indexed Fenwick tree over set-bit counts
	total int
}

// NewRankIndex builds a RankIndex from valid, where valid[i] reports
// whether row i holds a value in the component's dense column.
func NewRankIndex(valid []bool) *RankIndex {
	n := len(valid)
	r := &RankIndex{tree: make([]int32, n+1)}
	for i, v := range valid {
		if !v {
			continue
		}
		r.total++
		idx := i + 1
		for idx <= n {
			r.tree[idx]++
			idx += idx & (-idx)
		}
	}
	return r
}

// Rank returns the number of set bits in valid[0:i] (exclusive of i), i.e.
// the dense-array offset that sparse row index i maps to when valid[i] is
// true.
func (r *RankIndex) Rank(i int) int {
	if i <= 0 {
		return 0
	}
	if i > len(r.tree)-1 {
		i = len(r.tree) - 1
	}
	var sum int32
	for i > 0 {
		sum += r.tree[i]
		i -= i & (-i)
	}
	return int(sum)
}

// RangeCount returns the number of set bits in valid[lo:hi) (hi exclusive).
func (r *RankIndex) RangeCount(lo, hi int) int {
	return r.Rank(hi) - r.Rank(lo)
}

// Total returns the total number of set bits across the whole index.
func (r *RankIndex) Total() int { return r.total }
