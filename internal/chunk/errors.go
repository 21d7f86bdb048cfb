// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package chunk

import "errors"

// ErrMalformed wraps a chunk invariant violation detected at construction
// or during a transformation that would break one (spec.md §7). Errors
// returned by this package are always wrapped with fmt.Errorf("%w: ...",
// ErrMalformed) so callers can errors.Is against it.
var ErrMalformed = errors.New("chunk: malformed")
