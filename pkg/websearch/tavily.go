// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leseb/beebot-mcp/pkg/upstream"
)

const tavilySearchURL = "https://api.tavily.com/search"

func init() {
	Providers.Register("tavily", func(_ context.Context, params map[string]string) (Provider, error) {
		apiKey := params["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("tavily: api_key parameter is required")
		}
		p := NewTavilyProvider(apiKey)
		if params["base_url"] != "" {
			p.searchURL = params["base_url"]
		}
		return p, nil
	})
}

// TavilyProvider performs web searches using the Tavily Search API.
type TavilyProvider struct {
	apiKey    string
	searchURL string
	client    *upstream.Client
}

// NewTavilyProvider creates a new Tavily Search provider.
func NewTavilyProvider(apiKey string) *TavilyProvider {
	return &TavilyProvider{
		apiKey:    apiKey,
		searchURL: tavilySearchURL,
		client:    defaultClient(),
	}
}

func (t *TavilyProvider) useClient(c *upstream.Client) { t.client = c }

// Search queries the Tavily Search API and returns results.
func (t *TavilyProvider) Search(ctx context.Context, req Request) ([]SearchResult, error) {
	reqBody := tavilySearchRequest{
		APIKey:     t.apiKey,
		Query:      req.Query,
		MaxResults: clampResults(req.MaxResults),
	}
	if !req.StartPublished.IsZero() {
		reqBody.StartDate = isoDay(req.StartPublished)
	}
	if !req.EndPublished.IsZero() {
		reqBody.EndDate = isoDay(req.EndPublished)
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")

	var result tavilySearchResponse
	if err := t.client.PostJSON(ctx, t.searchURL, headers, reqBody, &result); err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	var results []SearchResult
	for _, r := range result.Results {
		results = append(results, SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Content,
			PublishedDate: r.PublishedDate,
		})
	}

	return results, nil
}

type tavilySearchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
}

type tavilySearchResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"published_date,omitempty"`
}
