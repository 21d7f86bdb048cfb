// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunk

import (
	"fmt"
	"sort"

	"github.com/tomtom215/chunkstore/internal/timeline"
)

// TimeColumn holds one timeline's N values plus cached derived facts
// (spec.md §3.2): whether the values are in ascending order, and the
// tight [min, max] time_range.
type TimeColumn struct {
	Times    []int64
	IsSorted bool
	Range    timeline.Range
}

// newTimeColumn builds a TimeColumn, rejecting the reserved STATIC
// sentinel anywhere in times (spec.md §3.2 invariant 2) and computing
// IsSorted/Range in O(N).
func newTimeColumn(name string, times []int64) (TimeColumn, error) {
	for _, t := range times {
		if t == timeline.Static {
			return TimeColumn{}, fmt.Errorf("%w: timeline %s: STATIC sentinel value present in a temporal column",
				ErrMalformed, name)
		}
	}
	tc := TimeColumn{Times: times}
	tc.recompute()
	return tc, nil
}

// recompute refreshes IsSorted and Range from Times in O(N).
func (tc *TimeColumn) recompute() {
	if len(tc.Times) == 0 {
		tc.IsSorted = true
		tc.Range = timeline.Range{}
		return
	}
	min, max := tc.Times[0], tc.Times[0]
	sorted := true
	for i := 1; i < len(tc.Times); i++ {
		if tc.Times[i] < tc.Times[i-1] {
			sorted = false
		}
		if tc.Times[i] < min {
			min = tc.Times[i]
		}
		if tc.Times[i] > max {
			max = tc.Times[i]
		}
	}
	tc.IsSorted = sorted
	tc.Range = timeline.Range{Min: min, Max: max}
}

// permute returns a new TimeColumn with rows reordered per rowIdxs.
func (tc TimeColumn) permute(rowIdxs []int) TimeColumn {
	times := make([]int64, len(rowIdxs))
	for i, old := range rowIdxs {
		times[i] = tc.Times[old]
	}
	out := TimeColumn{Times: times}
	out.recompute()
	return out
}

// SearchLatestAtOrBefore returns the index of the largest row whose time is
// <= at, or -1 if none qualifies. Uses binary search when the column is
// sorted and a linear scan otherwise, per spec.md §4.3 step 2. Exported
// for internal/query, which performs the latest-at walk over a chunk's
// timeline column directly.
func (tc TimeColumn) SearchLatestAtOrBefore(at int64) int {
	if tc.IsSorted {
		// sort.Search finds the first index for which times[i] > at; the
		// answer is one before that.
		idx := sort.Search(len(tc.Times), func(i int) bool { return tc.Times[i] > at })
		if idx == 0 {
			return -1
		}
		return idx - 1
	}
	best := -1
	for i, t := range tc.Times {
		if t <= at && (best == -1 || t > tc.Times[best]) {
			best = i
		}
	}
	return best
}
