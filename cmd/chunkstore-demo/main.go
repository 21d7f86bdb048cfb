// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Command chunkstore-demo wires the chunk store, query engine and query
// cache into a single process exposing a Prometheus /metrics endpoint,
// mirroring the shape (not the domain) of the teacher's cmd/server/main.go
// startup sequence: load config, init logging, construct the core, serve.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/chunkstore/internal/chunk"
	"github.com/tomtom215/chunkstore/internal/chunkstore"
	"github.com/tomtom215/chunkstore/internal/component"
	"github.com/tomtom215/chunkstore/internal/config"
	"github.com/tomtom215/chunkstore/internal/entitypath"
	"github.com/tomtom215/chunkstore/internal/logging"
	"github.com/tomtom215/chunkstore/internal/query"
	"github.com/tomtom215/chunkstore/internal/querycache"
	"github.com/tomtom215/chunkstore/internal/rowid"
	"github.com/tomtom215/chunkstore/internal/timeline"
)

var mem = memory.NewGoAllocator()

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	store := chunkstore.New("chunkstore-demo")
	cache := querycache.New(store)
	defer cache.Close()

	store.Subscribe(func(events []chunkstore.StoreEvent) {
		for _, e := range events {
			logging.Debug().
				Uint64("event_id", e.EventID).
				Str("kind", e.Diff.Kind.String()).
				Uint64("metadata_gen", e.Generation.Metadata).
				Uint64("data_gen", e.Generation.Data).
				Msg("store event")
		}
	})

	if err := runDemoQuery(store, cache); err != nil {
		logging.Error().Err(err).Msg("demo query failed")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", cfg.Metrics.ListenAddr).Msg("metrics server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("metrics server shutdown error")
	}

	if cfg.Store.GCByteBudget > 0 || cfg.Store.GCProtectLatest {
		store.GC(chunkstore.GCTarget{
			ByteBudget:    cfg.Store.GCByteBudget,
			ProtectLatest: cfg.Store.GCProtectLatest,
		})
	}

	os.Exit(0)
}

// runDemoQuery inserts one sample row, answers a latest-at query for it,
// and resolves the result through the cache's circuit-breaker-guarded
// resolver (querycache.Cache.Resolver), exercising the full
// store -> query -> cache -> resolver path end to end at startup.
func runDemoQuery(store *chunkstore.Store, cache *querycache.Cache) error {
	path := entitypath.New("sensor", "altimeter")
	tl := timeline.New("frame", timeline.Sequence)
	desc := component.New("Altitude")

	c, err := buildAltitudeChunk(store.Registry(), path, tl, 1, 123.4)
	if err != nil {
		return err
	}
	if _, err := store.InsertChunk(c); err != nil {
		return err
	}

	latest := store.LatestAt(context.Background(), chunkstore.LatestAtQuery{Timeline: tl, At: 1}, path, []component.Descriptor{desc})
	row, ok := latest[desc]
	if !ok {
		return nil
	}

	sig := querycache.LatestAtSignature(tl, 1)
	entry := cache.GetOrCreate(path, desc, sig, func() []query.ResultRow {
		return []query.ResultRow{row}
	})

	dense, _, front, back := querycache.ToDense[float64](context.Background(), entry, cache.Resolver())
	logging.Info().
		Floats64("altitude", dense).
		Str("front_status", front.State.String()).
		Str("back_status", back.State.String()).
		Msg("resolved demo latest-at query through the circuit-guarded resolver")
	return nil
}

func buildAltitudeChunk(reg *rowid.Registry, path entitypath.EntityPath, tl timeline.Timeline, seq int64, altitude float64) (*chunk.Chunk, error) {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Append(altitude)

	validity := roaring.New()
	validity.Add(0)

	rowID := reg.NextRowId()
	return chunk.New(reg.NextChunkId(), path, nil,
		[]rowid.RowId{rowID},
		map[timeline.Timeline][]int64{tl: {seq}},
		map[component.Descriptor]chunk.ColumnInput{
			component.New("Altitude"): {Validity: validity, Data: b.NewArray()},
		})
}
