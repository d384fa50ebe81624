// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolkit holds the tool registry and the types shared between the
// dispatcher and tool implementations.
package toolkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leseb/beebot-mcp/pkg/mcp"
)

var (
	// ErrToolNotFound is returned by Resolve for an unregistered name.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("tool registry is frozen")
)

// Handler executes a tool. Domain failures are reported through an isError
// result; a returned error means the handler itself is broken.
type Handler func(ctx context.Context, args Arguments) (*mcp.ToolCallResult, error)

// Descriptor is the immutable public description of a tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// Registry maps tool names to tools. It is filled at startup and frozen
// before the first request; once frozen, lookups take no lock.
type Registry struct {
	mu      sync.Mutex
	frozen  atomic.Bool
	order   []string
	entries map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q: handler is required", t.Name)
	}
	if t.InputSchema.Type == "" {
		t.InputSchema = Object(t.InputSchema.Properties, t.InputSchema.Required...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("register %q: %w", t.Name, ErrRegistryFrozen)
	}
	if _, exists := r.entries[t.Name]; exists {
		return fmt.Errorf("register %q: %w", t.Name, ErrDuplicateTool)
	}
	r.entries[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister is Register for startup wiring, where a failure is a bug.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Freeze forbids further registration. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return len(r.order)
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].Descriptor)
	}
	return out
}

// Resolve looks a tool up by name.
func (r *Registry) Resolve(name string) (Tool, error) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	t, ok := r.entries[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}
