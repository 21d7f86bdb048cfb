// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chunk store metrics (spec.md §3.3, §4.3).
var (
	ChunksTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chunkstore_chunks_total",
			Help: "Number of chunks currently held by the store, by entity.",
		},
		[]string{"entity"},
	)

	RowsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chunkstore_rows_total",
			Help: "Total number of rows across all chunks currently held by the store.",
		},
	)

	InsertDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chunkstore_insert_duration_seconds",
			Help:    "Duration of ChunkStore.InsertChunk calls.",
			Buckets: prometheus.DefBuckets,
		},
	)

	GCChunksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chunkstore_gc_chunks_dropped_total",
			Help: "Total number of chunks dropped by garbage collection.",
		},
	)

	GCBytesFreed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chunkstore_gc_bytes_freed_total",
			Help: "Total heap bytes freed by garbage collection.",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunkstore_events_published_total",
			Help: "Total number of StoreEvents published to subscribers, by kind.",
		},
		[]string{"kind"},
	)
)

// Query engine metrics (spec.md §4.4).
var (
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chunkstore_query_duration_seconds",
			Help:    "Duration of latest-at and range queries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"}, // latest_at | range
	)
)

// Query cache metrics (spec.md §4.5).
var (
	QueryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "querycache_hits_total",
			Help: "Total number of query cache lookups served from cached data.",
		},
	)

	QueryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "querycache_misses_total",
			Help: "Total number of query cache lookups that required a write pass.",
		},
	)

	QueryCachePromiseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "querycache_promise_errors_total",
			Help: "Total number of promises that resolved to PromiseError.",
		},
	)

	QueryCacheReentrantCalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "querycache_reentrant_calls_total",
			Help: "Total number of to_dense/to_sparse calls that took the reentrant read path.",
		},
	)
)

// RecordInsert records the duration of a single ChunkStore.InsertChunk call.
func RecordInsert(d time.Duration) {
	InsertDuration.Observe(d.Seconds())
}

// RecordQuery records the duration of a single latest-at or range query.
func RecordQuery(kind string, d time.Duration) {
	QueryDuration.WithLabelValues(kind).Observe(d.Seconds())
}
