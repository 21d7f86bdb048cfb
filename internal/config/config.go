// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package config

import (
	"fmt"
	"time"
)

// Config holds all chunk store process configuration, loaded from
// defaults, an optional YAML file and the environment, in that order of
// increasing precedence (see koanf.go). It is immutable after
// LoadWithKoanf returns and safe for concurrent reads.
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Cache   CacheConfig   `koanf:"cache"`
	Metrics MetricsConfig `koanf:"metrics"`
	Logging LoggingConfig `koanf:"logging"`
}

// StoreConfig drives ChunkStore.GC (spec.md §4.3).
type StoreConfig struct {
	// GCByteBudget is the heap-byte budget GC trims temporal chunks down
	// to. Zero disables byte-budget GC.
	GCByteBudget uint64 `koanf:"gc_byte_budget"`
	// GCProtectLatest, when true, preserves all static chunks during GC
	// regardless of byte/generation pressure (spec.md §4.3).
	GCProtectLatest bool `koanf:"gc_protect_latest"`
	// GCGenerationBudget is an alternate GC target expressed as a count
	// of store generations to retain; zero disables it. It is loaded but
	// not read anywhere: chunkstore.GCTarget has no generation budget, and
	// cmd/chunkstore-demo passes only GCByteBudget and GCProtectLatest.
	GCGenerationBudget uint64 `koanf:"gc_generation_budget"`
}

// CacheConfig holds circuit breaker settings for calls into the external
// PromiseResolver (spec.md §5, §9 "Promises vs. blocking I/O"). They are
// loaded and validated only: querycache.New builds its resolver from
// querycache.DefaultResolverConfig and does not take a CacheConfig.
type CacheConfig struct {
	CircuitBreakerMaxRequests uint32        `koanf:"circuit_breaker_max_requests"`
	CircuitBreakerTimeout     time.Duration `koanf:"circuit_breaker_timeout"`
	CircuitBreakerInterval    time.Duration `koanf:"circuit_breaker_interval"`
}

// MetricsConfig configures the Prometheus endpoint cmd/chunkstore-demo
// exposes.
type MetricsConfig struct {
	ListenAddr string `koanf:"listen_addr"`
}

// LoggingConfig is passed straight through to internal/logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns the built-in defaults, the first (lowest
// precedence) layer loaded by LoadWithKoanf.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			GCByteBudget:       0,
			GCProtectLatest:    true,
			GCGenerationBudget: 0,
		},
		Cache: CacheConfig{
			CircuitBreakerMaxRequests: 5,
			CircuitBreakerTimeout:     30 * time.Second,
			CircuitBreakerInterval:    10 * time.Second,
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration for internally inconsistent
// values. Unlike spec.md's query/insertion paths, configuration loading
// is a strict boundary (spec.md §7 "validation is strict at store
// boundaries"): a bad config fails fast at startup rather than producing
// a store that silently never GCs or never retries a resolver.
func (c *Config) Validate() error {
	if c.Cache.CircuitBreakerMaxRequests == 0 {
		return fmt.Errorf("cache.circuit_breaker_max_requests must be > 0")
	}
	if c.Cache.CircuitBreakerTimeout <= 0 {
		return fmt.Errorf("cache.circuit_breaker_timeout must be > 0")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
