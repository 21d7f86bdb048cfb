// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package arrowcodec

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

var mem = memory.NewGoAllocator()

const (
	fieldRowIDTime    = "row_id_time_ns"
	fieldRowIDCounter = "row_id_counter"
	timelinePrefix    = "timeline:"
	componentPrefix   = "component:"

	metaEntityPath   = "entity_path"
	metaChunkIDTime  = "chunk_id_time_ns"
	metaChunkIDCtr   = "chunk_id_counter"
	metaIsSorted     = "is_sorted"
	metaHeapSizeHint = "heap_size_bytes"

	fieldMetaArchetype   = "archetype"
	fieldMetaComponent   = "component"
	fieldMetaTimelineKnd = "timeline_kind"
)

// ChunkToBatch renders c as the columnar record batch described in
// spec.md §6.1: a row-id column pair, one int64 array per timeline, and
// one (now densely-nulled) array per component, tagged with
// entity_path/chunk_id/is_sorted/heap_size_bytes metadata on the batch.
func ChunkToBatch(c *chunk.Chunk) (arrow.Record, error) {
	n := c.Len()

	fields := []arrow.Field{
		{Name: fieldRowIDTime, Type: arrow.PrimitiveTypes.Uint64},
		{Name: fieldRowIDCounter, Type: arrow.PrimitiveTypes.Uint64},
	}
	cols := make([]arrow.Array, 0, 2+len(c.Timelines)+len(c.Components))

	rtB := array.NewUint64Builder(mem)
	rcB := array.NewUint64Builder(mem)
	defer rtB.Release()
	defer rcB.Release()
	for _, id := range c.RowIds {
		rtB.Append(id.TimeNS)
		rcB.Append(id.Counter)
	}
	cols = append(cols, rtB.NewArray(), rcB.NewArray())

	for tl, tc := range c.Timelines {
		fields = append(fields, arrow.Field{
			Name: timelinePrefix + tl.Name,
			Type: arrow.PrimitiveTypes.Int64,
			Metadata: arrow.NewMetadata(
				[]string{fieldMetaTimelineKnd},
				[]string{tl.Kind.String()},
			),
		})
		b := array.NewInt64Builder(mem)
		for _, t := range tc.Times {
			b.Append(t)
		}
		cols = append(cols, b.NewArray())
		b.Release()
	}

	for desc, col := range c.Components {
		arr, err := buildFullArray(col, n)
		if err != nil {
			return nil, fmt.Errorf("arrowcodec: component %s: %w", desc, err)
		}
		fields = append(fields, arrow.Field{
			Name:     componentPrefix + desc.String(),
			Type:     arr.DataType(),
			Nullable: true,
			Metadata: arrow.NewMetadata(
				[]string{fieldMetaArchetype, fieldMetaComponent},
				[]string{desc.Archetype, desc.Component},
			),
		})
		cols = append(cols, arr)
	}

	pathJSON, err := json.Marshal(c.EntityPath.Parts())
	if err != nil {
		return nil, fmt.Errorf("arrowcodec: marshal entity_path: %w", err)
	}

	batchMeta := metaHolder{
		metaEntityPath:   string(pathJSON),
		metaChunkIDTime:  fmt.Sprintf("%d", rowid.ID(c.ID).TimeNS),
		metaChunkIDCtr:   fmt.Sprintf("%d", rowid.ID(c.ID).Counter),
		metaIsSorted:     fmt.Sprintf("%v", c.IsSorted()),
		metaHeapSizeHint: fmt.Sprintf("%d", c.HeapSizeBytes()),
	}.schema()
	schema := arrow.NewSchema(fields, batchMeta)

	return array.NewRecord(schema, cols, int64(n)), nil
}

// ChunkFromBatch reconstructs a Chunk from a record batch produced by
// ChunkToBatch. Round-tripping a chunk through ToBatch/FromBatch preserves
// equality except for the memoized heap_size_bytes cache and a freshly
// assigned ChunkId, per spec.md §8 property 8 (a new id is assigned here
// rather than trusting the wire value, since ChunkId is this process's
// dedup key, not an externally durable identifier -- see DESIGN.md).
func ChunkFromBatch(rec arrow.Record, reg *rowid.Registry) (*chunk.Chunk, error) {
	schema := rec.Schema()
	meta := schema.Metadata()

	pathJSONIdx := meta.FindKey(metaEntityPath)
	if pathJSONIdx < 0 {
		return nil, fmt.Errorf("arrowcodec: batch missing %s metadata", metaEntityPath)
	}
	var parts []string
	if err := json.Unmarshal([]byte(meta.Values()[pathJSONIdx]), &parts); err != nil {
		return nil, fmt.Errorf("arrowcodec: unmarshal entity_path: %w", err)
	}
	path := entitypath.New(parts...)

	rtCol, rcCol, n, err := rowIDColumns(rec)
	if err != nil {
		return nil, err
	}

	rowIds := make([]rowid.RowId, n)
	for i := 0; i < n; i++ {
		rowIds[i] = rowid.RowId{TimeNS: rtCol.Value(i), Counter: rcCol.Value(i)}
	}

	timelines := make(map[timeline.Timeline][]int64)
	components := make(map[component.Descriptor]chunk.ColumnInput)

	for i, f := range schema.Fields() {
		switch {
		case f.Name == fieldRowIDTime || f.Name == fieldRowIDCounter:
			continue
		case len(f.Name) > len(timelinePrefix) && f.Name[:len(timelinePrefix)] == timelinePrefix:
			kindIdx := f.Metadata.FindKey(fieldMetaTimelineKnd)
			kind := timeline.Sequence
			if kindIdx >= 0 {
				kind = parseTimelineKind(f.Metadata.Values()[kindIdx])
			}
			name := f.Name[len(timelinePrefix):]
			arr, ok := rec.Column(i).(*array.Int64)
			if !ok {
				return nil, fmt.Errorf("arrowcodec: timeline %s: expected int64 array", name)
			}
			times := make([]int64, n)
			for r := 0; r < n; r++ {
				times[r] = arr.Value(r)
			}
			timelines[timeline.New(name, kind)] = times
		case len(f.Name) > len(componentPrefix) && f.Name[:len(componentPrefix)] == componentPrefix:
			archIdx := f.Metadata.FindKey(fieldMetaArchetype)
			compIdx := f.Metadata.FindKey(fieldMetaComponent)
			var desc component.Descriptor
			if archIdx >= 0 && compIdx >= 0 && f.Metadata.Values()[archIdx] != "" {
				desc = component.WithArchetype(f.Metadata.Values()[archIdx], f.Metadata.Values()[compIdx])
			} else if compIdx >= 0 {
				desc = component.New(f.Metadata.Values()[compIdx])
			}
			validity, dense, err := decodeFullArray(rec.Column(i))
			if err != nil {
				return nil, fmt.Errorf("arrowcodec: component %s: %w", desc, err)
			}
			components[desc] = chunk.ColumnInput{Validity: validity, Data: dense}
		}
	}

	registry := reg
	if registry == nil {
		registry = rowid.Default()
	}
	return chunk.New(registry.NextChunkId(), path, nil, rowIds, timelines, components)
}

func parseTimelineKind(s string) timeline.Kind {
	switch s {
	case timeline.DurationNs.String():
		return timeline.DurationNs
	case timeline.TimestampNs.String():
		return timeline.TimestampNs
	default:
		return timeline.Sequence
	}
}

func rowIDColumns(rec arrow.Record) (*array.Uint64, *array.Uint64, int, error) {
	schema := rec.Schema()
	tIdx := schema.FieldIndices(fieldRowIDTime)
	cIdx := schema.FieldIndices(fieldRowIDCounter)
	if len(tIdx) != 1 || len(cIdx) != 1 {
		return nil, nil, 0, fmt.Errorf("arrowcodec: batch must have exactly one %s and one %s column",
			fieldRowIDTime, fieldRowIDCounter)
	}
	rtCol, ok := rec.Column(tIdx[0]).(*array.Uint64)
	if !ok {
		return nil, nil, 0, fmt.Errorf("arrowcodec: %s must be uint64", fieldRowIDTime)
	}
	rcCol, ok := rec.Column(cIdx[0]).(*array.Uint64)
	if !ok {
		return nil, nil, 0, fmt.Errorf("arrowcodec: %s must be uint64", fieldRowIDCounter)
	}
	return rtCol, rcCol, int(rec.NumRows()), nil
}

// metaHolder exists only so schema construction below reads as one
// expression; arrow.NewSchema takes *arrow.Metadata, not a map literal.
type metaHolder map[string]string

func (m metaHolder) schema() *arrow.Metadata {
	keys := make([]string, 0, len(m))
	vals := make([]string, 0, len(m))
	for k, v := range m {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	md := arrow.NewMetadata(keys, vals)
	return &md
}
