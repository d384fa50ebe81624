// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package toolkit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/leseb/beebot-mcp/pkg/cache"
	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
)

// Cached wraps a tool so that successful results are memoised in c for ttl.
// Results flagged isError are never stored. Cache failures are logged and
// the tool runs as if the cache were absent.
func Cached(c cache.Cache, ttl time.Duration, logger *logging.Logger, t Tool) Tool {
	if c == nil || ttl <= 0 {
		return t
	}
	if logger == nil {
		logger = logging.Discard()
	}
	next := t.Handler
	name := t.Name

	t.Handler = func(ctx context.Context, args Arguments) (*mcp.ToolCallResult, error) {
		key, err := cacheKey(name, args)
		if err != nil {
			logger.Warn("cache key", "tool", name, "error", err)
			return next(ctx, args)
		}

		if raw, err := c.Get(ctx, key); err == nil {
			var hit mcp.ToolCallResult
			decodeErr := json.Unmarshal(raw, &hit)
			if decodeErr == nil {
				logger.Debug("cache hit", "tool", name)
				return &hit, nil
			}
			logger.Warn("cache entry unreadable", "tool", name, "error", decodeErr)
		} else if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("cache get", "tool", name, "error", err)
		}

		result, err := next(ctx, args)
		if err != nil || result == nil || result.IsError {
			return result, err
		}
		raw, err := json.Marshal(result)
		if err != nil {
			logger.Warn("cache encode", "tool", name, "error", err)
			return result, nil
		}
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			logger.Warn("cache set", "tool", name, "error", err)
		}
		return result, nil
	}
	return t
}

// cacheKey is stable for equal arguments: encoding/json sorts map keys.
func cacheKey(tool string, args Arguments) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return "tool:" + tool + ":" + hex.EncodeToString(sum[:]), nil
}
