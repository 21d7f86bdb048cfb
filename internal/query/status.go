// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package query

// StatusState is the three-valued resolution state spec.md §4.5 carries on
// a cache entry's front_status/back_status: a promise is still outstanding,
// already resolved, or resolved to an error. Neither state is ever
// surfaced as a Go error (spec.md §7): callers must check Status before
// trusting the corresponding cached values.
type StatusState int

const (
	StatusReady StatusState = iota
	StatusPending
	StatusError
)

func (s StatusState) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Status pairs a StatusState with the TimeInt it applies to, matching
// spec.md §4.5's `(TimeInt, { Pending | Ready | Error })`.
type Status struct {
	Time  int64
	State StatusState
	Err   error
}
