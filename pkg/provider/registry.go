// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic factory registry for pluggable backends.
//
// Search engines, result caches and report archives each own a typed
// Registry; implementations self-register from init(). Blank-import an
// implementation package to make it available, then call Registry.New with
// the name taken from configuration.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned by New when no factory matches the name.
var ErrUnknownProvider = errors.New("unknown provider")

// Factory builds a backend from string parameters. Implementations read the
// keys they understand and ignore the rest.
type Factory[T any] func(ctx context.Context, params map[string]string) (T, error)

// Registry holds the named factories for one backend interface T.
type Registry[T any] struct {
	subsystem string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates a Registry. subsystem names the backend family in
// error messages, e.g. "search" or "cache".
func NewRegistry[T any](subsystem string) *Registry[T] {
	return &Registry[T]{
		subsystem: subsystem,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a named factory. A duplicate name panics: two init()
// functions claiming the same backend is a build mistake.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
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

// New instantiates the backend registered under name.
func (r *Registry[T]) New(ctx context.Context, name string, params map[string]string) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q (available: %v)", ErrUnknownProvider, r.subsystem, name, r.Available())
	}
	backend, err := f(ctx, params)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", r.subsystem, name, err)
	}
	return backend, nil
}

// Available returns the registered names in sorted order.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
