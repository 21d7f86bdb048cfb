// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

/*
Package config provides layered configuration for the chunk store and its
surrounding cmd/chunkstore-demo process, following the teacher's own
three-layer koanf loading order (internal/config/koanf.go): struct
defaults, then an optional YAML file, then environment variables, with
environment variables always winning.

# Configuration Sources

  - Built-in defaults (defaultConfig)
  - Optional YAML file (CONFIG_PATH env var, or the first of
    DefaultConfigPaths that exists)
  - Environment variables, prefixed CHUNKSTORE_

# Configuration Structure

  - Store: garbage-collection policy (spec.md §4.3 gc)
  - Cache: circuit breaker settings, loaded and validated; querycache.New
    does not read them (it uses querycache.DefaultResolverConfig)
  - Metrics: Prometheus listen address
  - Logging: level/format, passed straight through to internal/logging

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}
	store := chunkstore.New("chunkstore-demo")
	store.GC(chunkstore.GCTarget{
	    ByteBudget:    cfg.Store.GCByteBudget,
	    ProtectLatest: cfg.Store.GCProtectLatest,
	})
*/
package config
