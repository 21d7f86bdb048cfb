// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

package querycache

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chunkstore/internal/arrowcodec"
	"github.com/tomtom215/chunkstore/internal/logging"
)

// ResolverConfig tunes the circuit breaker guarding an external
// PromiseResolver (SPEC_FULL.md's Cache.CircuitBreaker* settings), mirrored
// on the teacher's CircuitBreakerClient (internal/sync/circuit_breaker.go).
type ResolverConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MaxElapsedTime bounds the cenkalti/backoff retry loop run inside each
	// circuit breaker Execute call; zero uses backoff's own default.
	MaxElapsedTime time.Duration
}

// DefaultResolverConfig mirrors the teacher's Tautulli client defaults,
// scaled down: promise resolution is expected to be in-process and fast,
// so the breaker trips faster and recovers sooner than a remote API client
// would.
func DefaultResolverConfig(name string) ResolverConfig {
	return ResolverConfig{
		Name:           name,
		MaxRequests:    3,
		Interval:       time.Minute,
		Timeout:        10 * time.Second,
		MaxElapsedTime: 2 * time.Second,
	}
}

// CircuitResolver wraps an arrowcodec.Resolver with a gobreaker/v2 circuit
// breaker plus cenkalti/backoff/v4 retries (SPEC_FULL.md §C
// "PromiseResolver fault isolation"), so a wedged or flaky external
// resolver degrades to PromiseError instead of blocking every cache
// population indefinitely (spec.md §5 "Promises vs. blocking I/O").
//
// cenkalti/backoff/v4 has no grounding example anywhere in the retrieval
// pack (no pack repo imports it); it is paired here with gobreaker/v2,
// which does have a grounded usage pattern, per SPEC_FULL.md's explicit
// commitment to both. See DESIGN.md.
type CircuitResolver struct {
	inner arrowcodec.Resolver
	cb    *gobreaker.CircuitBreaker[any]
	name  string
	cfg   ResolverConfig
}

// NewCircuitResolver builds a CircuitResolver around inner.
func NewCircuitResolver(inner arrowcodec.Resolver, cfg ResolverConfig) *CircuitResolver {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("resolver", name).Str("from", from.String()).Str("to", to.String()).
				Msg("querycache: promise resolver circuit breaker state transition")
		},
	})
	return &CircuitResolver{inner: inner, cb: cb, name: cfg.Name, cfg: cfg}
}

// Resolver returns an arrowcodec.Resolver closure that retries the wrapped
// resolver through an exponential backoff, the whole attempt loop running
// inside the circuit breaker's Execute so failures count toward the
// breaker's trip threshold.
func (r *CircuitResolver) Resolver() arrowcodec.Resolver {
	return func(p arrowcodec.Promise) (any, error) {
		v, err := r.cb.Execute(func() (any, error) {
			b := backoff.NewExponentialBackOff()
			if r.cfg.MaxElapsedTime > 0 {
				b.MaxElapsedTime = r.cfg.MaxElapsedTime
			}
			var result any
			opErr := backoff.Retry(func() error {
				val, err := r.inner(p)
				if err != nil {
					return err
				}
				result = val
				return nil
			}, b)
			return result, opErr
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				logging.Warn().Str("resolver", r.name).Err(err).Msg("querycache: promise resolver rejected, circuit open")
			}
			return nil, err
		}
		return v, nil
	}
}
