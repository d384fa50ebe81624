// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package cachetest provides a shared conformance test suite for
// cache.Cache implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package cachetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leseb/beebot-mcp/pkg/cache"
)

// RunConformanceTests exercises a Cache implementation against the shared
// contract. newCache is called once per sub-test.
func RunConformanceTests(t *testing.T, newCache func(t *testing.T) cache.Cache) {
	t.Helper()

	t.Run("MissOnEmpty", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()

		_, err := c.Get(context.Background(), "absent")
		if !errors.Is(err, cache.ErrMiss) {
			t.Fatalf("expected ErrMiss, got %v", err)
		}
	})

	t.Run("SetThenGet", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		if err := c.Set(ctx, "tool:web_search:abc", []byte(`{"content":[]}`), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := c.Get(ctx, "tool:web_search:abc")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != `{"content":[]}` {
			t.Errorf("Get = %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		if err := c.Set(ctx, "k", []byte("one"), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := c.Set(ctx, "k", []byte("two"), time.Minute); err != nil {
			t.Fatalf("Set overwrite: %v", err)
		}
		got, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "two" {
			t.Errorf("Get = %q, want two", got)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		c := newCache(t)
		defer c.Close()
		ctx := context.Background()

		if err := c.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
			t.Fatalf("Set: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
		if _, err := c.Get(ctx, "short"); !errors.Is(err, cache.ErrMiss) {
			t.Fatalf("expected ErrMiss after expiry, got %v", err)
		}
	})
}
