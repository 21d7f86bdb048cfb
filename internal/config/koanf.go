// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths config files are searched at, in
// priority order; the first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chunkstore/config.yaml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces every recognized environment variable.
const envPrefix = "CHUNKSTORE_"

// LoadWithKoanf loads configuration with three layers, environment
// winning:
//  1. Defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, or the first of DefaultConfigPaths
//     that exists)
//  3. Environment variables prefixed CHUNKSTORE_
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps CHUNKSTORE_STORE_GC_BYTE_BUDGET to
// store.gc_byte_budget: it strips the prefix, lowercases, and looks the
// result up in a fixed table of known keys. A variable not in the table
// maps to "" and is ignored. Matches the teacher's own env.Provider
// callback convention (internal/config/koanf.go envTransformFunc).
func envTransformFunc(key string) string {
	trimmed := strings.TrimPrefix(key, envPrefix)
	lower := strings.ToLower(trimmed)

	mappings := map[string]string{
		"store_gc_byte_budget":       "store.gc_byte_budget",
		"store_gc_protect_latest":    "store.gc_protect_latest",
		"store_gc_generation_budget": "store.gc_generation_budget",

		"cache_circuit_breaker_max_requests": "cache.circuit_breaker_max_requests",
		"cache_circuit_breaker_timeout":      "cache.circuit_breaker_timeout",
		"cache_circuit_breaker_interval":     "cache.circuit_breaker_interval",

		"metrics_listen_addr": "metrics.listen_addr",

		"logging_level":  "logging.level",
		"logging_format": "logging.format",
	}

	if mapped, ok := mappings[lower]; ok {
		return mapped
	}
	return ""
}
