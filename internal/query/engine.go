// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package query

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

// Engine runs latest-at and range searches over caller-supplied chunk
// slices, fanning the per-component work out across goroutines (spec.md §4.4 "search
// may be parallelized across components, since each component's answer is
// independent of every other component's"). An Engine holds no state of its
// own and is safe to share across goroutines.
type Engine struct{}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine { return &Engine{} }

// LatestAt finds, for each requested component, the most recent row at or
// before at on tl, walking static chunks and temporal chunks for tl
// uniformly (a static chunk simply has no tl entry and is skipped by
// bestRowForComponent, so callers may pass a mixed slice of both). Ties on
// data_time are broken by the greater RowId (spec.md §4.4 step 2,
// §8 property 4).
func (e *Engine) LatestAt(ctx context.Context, chunks []*chunk.Chunk, tl timeline.Timeline, at int64, comps []component.Descriptor) (LatestAtResults, error) {
	results := make(LatestAtResults, len(comps))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, desc := range comps {
		desc := desc
		g.Go(func() error {
			var (
				found    bool
				bestTime int64
				bestRow  rowid.RowId
				bestIdx  int
				bestC    *chunk.Chunk
			)
			for _, c := range chunks {
				t, r, idx, ok := bestRowForComponent(c, tl, at, desc)
				if !ok {
					continue
				}
				if !found || t > bestTime || (t == bestTime && r.Compare(bestRow) > 0) {
					found, bestTime, bestRow, bestIdx, bestC = true, t, r, idx, c
				}
			}
			if !found {
				return nil
			}
			row := ResultRow{
				DataTime: bestTime,
				RowID:    bestRow,
				Promise:  arrowcodec.Promise{Chunk: bestC, Descriptor: desc, Row: bestIdx},
			}
			mu.Lock()
			results[desc] = row
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Range finds, for each requested component, every row whose data_time
// falls in [lo, hi] on tl, sorted ascending by (data_time, RowId). Static
// rows are not produced here: chunkstore merges its single static answer
// into the front of each component's slice separately, since a static row
// belongs to every range query regardless of tl (spec.md §4.4 step 1).
func (e *Engine) Range(ctx context.Context, chunks []*chunk.Chunk, tl timeline.Timeline, lo, hi int64, comps []component.Descriptor) (RangeResults, error) {
	results := make(RangeResults, len(comps))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, desc := range comps {
		desc := desc
		g.Go(func() error {
			var rows []ResultRow
			for _, c := range chunks {
				tc, ok := c.Timelines[tl]
				if !ok {
					continue
				}
				col, ok := c.Components[desc]
				if !ok {
					continue
				}
				for row := 0; row < len(tc.Times); row++ {
					t := tc.Times[row]
					if t < lo || t > hi {
						continue
					}
					if !col.IsValid(row) {
						continue
					}
					rows = append(rows, ResultRow{
						DataTime: t,
						RowID:    c.RowIds[row],
						Promise:  arrowcodec.Promise{Chunk: c, Descriptor: desc, Row: row},
					})
				}
			}
			if len(rows) == 0 {
				return nil
			}
			sort.Slice(rows, func(i, j int) bool {
				if rows[i].DataTime != rows[j].DataTime {
					return rows[i].DataTime < rows[j].DataTime
				}
				return rows[i].RowID.Less(rows[j].RowID)
			})
			mu.Lock()
			results[desc] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// StaticRow resolves a component's static value within c, if any, using
// the lowest valid row. chunkstore calls this once per (entity, component):
// in LatestAt the result is the answer and no temporal search is made for
// that component; in Range it is prepended to the component's rows. A
// static value is valid at every time
// and overridable only by a newer static chunk (spec.md §4.3 step 4,
// §8 property 5).
func StaticRow(c *chunk.Chunk, desc component.Descriptor) (ResultRow, bool) {
	if !c.IsStatic() {
		return ResultRow{}, false
	}
	col, ok := c.Components[desc]
	if !ok || col.Validity.IsEmpty() {
		return ResultRow{}, false
	}
	row := int(col.Validity.Minimum())
	return ResultRow{
		DataTime: timeline.Static,
		RowID:    c.RowIds[row],
		Promise:  arrowcodec.Promise{Chunk: c, Descriptor: desc, Row: row},
	}, true
}

// bestRowForComponent returns the qualifying row (time <= at, greatest time
// then greatest RowId) within c for desc on tl, or ok=false if c lacks
// tl or desc, or has no valid row at or before at. When tl's
// column is known sorted ascending, the search range is first narrowed
// with SearchLatestAtOrBefore's binary search; ties and unsorted columns
// fall back to a full linear scan so correctness never depends on sort
// order, only performance does.
func bestRowForComponent(c *chunk.Chunk, tl timeline.Timeline, at int64, desc component.Descriptor) (dataTime int64, id rowid.RowId, rowIdx int, ok bool) {
	tc, has := c.Timelines[tl]
	if !has {
		return 0, rowid.RowId{}, 0, false
	}
	col, has := c.Components[desc]
	if !has {
		return 0, rowid.RowId{}, 0, false
	}

	limit := len(tc.Times)
	if tc.IsSorted {
		idx := tc.SearchLatestAtOrBefore(at)
		if idx < 0 {
			return 0, rowid.RowId{}, 0, false
		}
		limit = idx + 1
	}

	best := -1
	for row := 0; row < limit; row++ {
		if tc.Times[row] > at || !col.IsValid(row) {
			continue
		}
		if best == -1 ||
			tc.Times[row] > tc.Times[best] ||
			(tc.Times[row] == tc.Times[best] && c.RowIds[row].Compare(c.RowIds[best]) > 0) {
			best = row
		}
	}
	if best == -1 {
		return 0, rowid.RowId{}, 0, false
	}
	return tc.Times[best], c.RowIds[best], best, true
}
