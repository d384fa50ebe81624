// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache defines the tool result cache and its backend registry.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/leseb/beebot-mcp/pkg/provider"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Providers is the registry of cache backends. Import implementation
// packages with blank imports to register them:
//
//	import _ "github.com/leseb/beebot-mcp/pkg/cache/memory"
//	import _ "github.com/leseb/beebot-mcp/pkg/cache/sqlstore"
var Providers = provider.NewRegistry[Cache]("cache")

// Cache stores opaque values with a time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
