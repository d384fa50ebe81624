// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package websearch defines the web search Provider interface and its
// backends. Backends register themselves in Providers from init().
package websearch

import (
	"context"
	"time"

	"github.com/leseb/beebot-mcp/pkg/provider"
	"github.com/leseb/beebot-mcp/pkg/upstream"
)

// Providers is the registry of search backends.
var Providers = provider.NewRegistry[Provider]("search")

// defaultTimeout applies to providers built without a shared client.
const defaultTimeout = 30 * time.Second

// Request describes one search.
type Request struct {
	Query      string
	MaxResults int
	// StartPublished and EndPublished bound the publication date. Zero
	// values leave that side of the window open.
	StartPublished time.Time
	EndPublished   time.Time
	// SummaryQuery asks providers that can summarise pages to do so with
	// this instruction.
	SummaryQuery string
}

// SearchResult represents a single web search result.
type SearchResult struct {
	Title         string
	URL           string
	Snippet       string
	PublishedDate string
}

// Provider performs web searches against an external API.
type Provider interface {
	Search(ctx context.Context, req Request) ([]SearchResult, error)
}

// clientUser is implemented by providers that can share the process-wide
// upstream client.
type clientUser interface {
	useClient(c *upstream.Client)
}

// New builds the named provider and points it at the shared client.
func New(ctx context.Context, name string, params map[string]string, client *upstream.Client) (Provider, error) {
	p, err := Providers.New(ctx, name, params)
	if err != nil {
		return nil, err
	}
	if cu, ok := p.(clientUser); ok && client != nil {
		cu.useClient(client)
	}
	return p, nil
}

func defaultClient() *upstream.Client {
	return upstream.New(defaultTimeout, "beebot-mcp")
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func clampResults(n int) int {
	if n <= 0 {
		return 5
	}
	return n
}
