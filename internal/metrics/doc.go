// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

/*
Package metrics provides Prometheus instrumentation for the chunk store,
query engine and query cache, following the teacher's own
promauto-constructed package-level var block style
(internal/metrics/metrics.go).

All metrics here are new and domain-specific to this repository; none of
the teacher's own media-analytics metrics (DB query latency, WebSocket
connections, sync operations, newsletter delivery, etc.) are reused, since
this repository has no analogue for any of them.
*/
package metrics
