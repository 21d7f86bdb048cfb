// chunkstore - an append-only, in-memory columnar store for multimodal
// time-series telemetry
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chunkstore

// Package component implements ComponentDescriptor (spec.md §3.1): a
// stable name identifying one sparse column in a chunk, e.g. a component
// type plus optional archetype context.
package component

import "fmt"

// Descriptor identifies one component column. Equality is exact on both
// fields; Archetype may be empty when a component is not archetype-scoped.
type Descriptor struct {
	// Archetype is the optional archetype context the component was
	// logged under (e.g. "Points3D"). Empty when not applicable.
	Archetype string
	// Component is the component type name (e.g. "Position3D", "Color").
	Component string
}

// New returns a bare, non-archetype-scoped descriptor.
func New(name string) Descriptor {
	return Descriptor{Component: name}
}

// WithArchetype returns an archetype-scoped descriptor.
func WithArchetype(archetype, name string) Descriptor {
	return Descriptor{Archetype: archetype, Component: name}
}

// Equal reports whether d and other name the same column.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Archetype == other.Archetype && d.Component == other.Component
}

func (d Descriptor) String() string {
	if d.Archetype == "" {
		return d.Component
	}
	return fmt.Sprintf("%s:%s", d.Archetype, d.Component)
}
