// Copyright MeiGen Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider decides which image generation backend is authoritative and
// holds the named factory registries that backend implementations plug into.
//
// Two subsystems create a typed Registry: image generation adapters
// (imagegen.Adapters, keyed by Kind) and prompt library backends
// (library.Backends). Implementations self-register via init(), following the
// database/sql driver pattern: blank-import the package, then call New.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownBackend is returned by Registry.New for names nobody registered.
var ErrUnknownBackend = errors.New("unknown backend")

// Params carries string settings for a factory. Factories pick the keys they
// understand and ignore the rest.
type Params map[string]string

// Factory builds a backend instance of type T.
type Factory[T any] func(ctx context.Context, params Params) (T, error)

// Registry maps backend names to factories for one backend interface T.
type Registry[T any] struct {
	subsystem string

	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty registry. subsystem appears in error messages,
// e.g. "image_provider" or "prompt_library".
func NewRegistry[T any](subsystem string) *Registry[T] {
	return &Registry[T]{
		subsystem: subsystem,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a factory under name. Registering the same name twice panics so
// that conflicting init() registrations fail at startup.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	if f == nil {
		panic(fmt.Sprintf("provider: nil %s factory for %q", r.subsystem, name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("provider: %s backend %q already registered", r.subsystem, name))
	}
	r.factories[name] = f
}

// Has reports whether a factory is registered under name.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// New builds the backend registered under name.
func (r *Registry[T]) New(ctx context.Context, name string, params Params) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q (registered: %v)", ErrUnknownBackend, r.subsystem, name, r.Names())
	}
	return f(ctx, params)
}

// Names returns the registered backend names in lexical order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
