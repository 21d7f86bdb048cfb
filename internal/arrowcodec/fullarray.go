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

	"github.com/tomtom215/chunkstore/internal/chunk"
)

// buildFullArray expands col's dense, compacted data back out to n rows,
// inserting an Arrow null at every row col's validity mask does not set.
// This is the wire representation spec.md §6.1 describes ("sparse list
// column"): a single nullable array, using Arrow's native null bitmap as
// the outer nullability rather than a side-channel roaring bitmap, which
// only needs to exist in-process for O(log n) rank lookups
// (internal/container/rank.go).
func buildFullArray(col *chunk.Column, n int) (arrow.Array, error) {
	switch a := col.Data.(type) {
	case *array.Int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Uint64:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Uint32:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Uint8:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Boolean:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	case *array.Binary:
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		defer b.Release()
		appendFull(n, col, func(dense int) { b.Append(a.Value(dense)) }, b.AppendNull)
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("arrowcodec: unsupported arrow type %s", col.Data.DataType())
	}
}

// appendFull walks rows [0,n) in order, calling appendValue(denseIdx) for
// valid rows and appendNull() for invalid ones.
func appendFull(n int, col *chunk.Column, appendValue func(dense int), appendNull func()) {
	for row := 0; row < n; row++ {
		if dense, ok := col.DenseIndex(row); ok {
			appendValue(dense)
		} else {
			appendNull()
		}
	}
}

// decodeFullArray is the inverse of buildFullArray: it reads a full-length
// nullable array and returns a validity bitmap plus a dense array holding
// only the non-null values, in row order -- the representation
// internal/chunk.ColumnInput expects.
func decodeFullArray(arr arrow.Array) (*roaring.Bitmap, arrow.Array, error) {
	validity := roaring.New()
	switch a := arr.(type) {
	case *array.Int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Uint64:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Uint32:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Uint8:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Boolean:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	case *array.Binary:
		b := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				validity.Add(uint32(i))
				b.Append(a.Value(i))
			}
		}
		return validity, b.NewArray(), nil
	default:
		return nil, nil, fmt.Errorf("arrowcodec: unsupported arrow type %s", arr.DataType())
	}
}
