// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/leseb/beebot-mcp/pkg/upstream"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

func init() {
	Providers.Register("brave", func(_ context.Context, params map[string]string) (Provider, error) {
		apiKey := params["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("brave: api_key parameter is required")
		}
		p := NewBraveProvider(apiKey)
		if params["base_url"] != "" {
			p.searchURL = params["base_url"]
		}
		return p, nil
	})
}

// BraveProvider performs web searches using the Brave Search API.
type BraveProvider struct {
	apiKey    string
	searchURL string
	client    *upstream.Client
}

// NewBraveProvider creates a new Brave Search provider.
func NewBraveProvider(apiKey string) *BraveProvider {
	return &BraveProvider{
		apiKey:    apiKey,
		searchURL: braveSearchURL,
		client:    defaultClient(),
	}
}

func (b *BraveProvider) useClient(c *upstream.Client) { b.client = c }

// Search queries the Brave Web Search API and returns results.
func (b *BraveProvider) Search(ctx context.Context, req Request) ([]SearchResult, error) {
	u, err := url.Parse(b.searchURL)
	if err != nil {
		return nil, fmt.Errorf("brave search url: %w", err)
	}
	q := u.Query()
	q.Set("q", req.Query)
	q.Set("count", strconv.Itoa(clampResults(req.MaxResults)))
	if !req.StartPublished.IsZero() {
		end := req.EndPublished
		if end.IsZero() {
			end = time.Now()
		}
		q.Set("freshness", isoDay(req.StartPublished)+"to"+isoDay(end))
	}
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("X-Subscription-Token", b.apiKey)

	var result braveSearchResponse
	if err := b.client.GetJSON(ctx, u.String(), headers, &result); err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}

	var results []SearchResult
	for _, r := range result.Web.Results {
		results = append(results, SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Description,
			PublishedDate: r.PageAge,
		})
	}

	return results, nil
}

type braveSearchResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PageAge     string `json:"page_age,omitempty"`
}
