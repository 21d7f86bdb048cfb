// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package timeline defines the named, typed axes that chunks and queries
// are indexed on, per spec.md §3.1.
package timeline

import "math"

// Kind identifies the semantic unit of a Timeline's values.
type Kind int

const (
	// Sequence values are plain signed 64-bit counters with no time unit.
	Sequence Kind = iota
	// DurationNs values are signed nanosecond durations relative to an
	// unspecified origin (e.g. time since recording start).
	DurationNs
	// TimestampNs values are signed nanoseconds since the Unix epoch.
	TimestampNs
)

func (k Kind) String() string {
	switch k {
	case Sequence:
		return "sequence"
	case DurationNs:
		return "duration_ns"
	case TimestampNs:
		return "timestamp_ns"
	default:
		return "unknown"
	}
}

// Static is the distinguished sentinel value that must never appear inside
// a timeline's time column: it marks a row as static (valid at all times)
// rather than assigning it a position on any timeline.
const Static int64 = math.MinInt64

// TimeInt is a signed 64-bit time value on some timeline, or Static.
type TimeInt int64

// IsStatic reports whether t is the reserved Static sentinel.
func (t TimeInt) IsStatic() bool { return int64(t) == Static }

// Timeline names one axis a chunk may declare rows against.
type Timeline struct {
	Name string
	Kind Kind
}

// New returns a Timeline with the given name and kind.
func New(name string, kind Kind) Timeline {
	return Timeline{Name: name, Kind: kind}
}

// Range is an inclusive [Min, Max] bound on a timeline.
type Range struct {
	Min int64
	Max int64
}

// Contains reports whether t falls within the closed interval [r.Min, r.Max].
func (r Range) Contains(t int64) bool { return t >= r.Min && t <= r.Max }

// Intersects reports whether r and other share at least one point.
func (r Range) Intersects(other Range) bool {
	return r.Min <= other.Max && other.Min <= r.Max
}

// Full is the unbounded [-inf, +inf] range used by full-table range scans.
func Full() Range {
	return Range{Min: math.MinInt64, Max: math.MaxInt64}
}
