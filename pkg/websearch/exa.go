// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/leseb/beebot-mcp/pkg/upstream"
)

const exaBaseURL = "https://api.exa.ai"

// exaDateLayout is the ISO-8601 form Exa expects for date filters.
const exaDateLayout = "2006-01-02T15:04:05.000Z"

func init() {
	Providers.Register("exa", func(_ context.Context, params map[string]string) (Provider, error) {
		apiKey := params["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("exa: api_key parameter is required")
		}
		p := NewExaProvider(apiKey)
		p.baseURL = withDefault(params["base_url"], exaBaseURL)
		return p, nil
	})
}

// ExaProvider performs searches with the Exa neural search API, asking it
// to summarise each hit.
type ExaProvider struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

// NewExaProvider creates a new Exa provider.
func NewExaProvider(apiKey string) *ExaProvider {
	return &ExaProvider{
		apiKey:  apiKey,
		baseURL: exaBaseURL,
		client:  defaultClient(),
	}
}

func (e *ExaProvider) useClient(c *upstream.Client) { e.client = c }

// Search calls POST /search with contents and returns the results.
func (e *ExaProvider) Search(ctx context.Context, req Request) ([]SearchResult, error) {
	body := exaSearchRequest{
		Query:      req.Query,
		Type:       "auto",
		NumResults: clampResults(req.MaxResults),
		Contents: exaContents{
			Livecrawl: "preferred",
			Extras:    &exaExtras{Links: 1},
		},
	}
	if !req.StartPublished.IsZero() {
		body.StartPublishedDate = req.StartPublished.UTC().Format(exaDateLayout)
	}
	if !req.EndPublished.IsZero() {
		body.EndPublishedDate = req.EndPublished.UTC().Format(exaDateLayout)
	}
	if req.SummaryQuery != "" {
		body.Contents.Summary = &exaSummary{Query: req.SummaryQuery}
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("x-api-key", e.apiKey)

	var resp exaSearchResponse
	if err := e.client.PostJSON(ctx, strings.TrimRight(e.baseURL, "/")+"/search", headers, body, &resp); err != nil {
		return nil, fmt.Errorf("exa search: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		snippet := r.Summary
		if snippet == "" {
			snippet = truncate(r.Text, 500)
		}
		results = append(results, SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       snippet,
			PublishedDate: r.PublishedDate,
		})
	}
	return results, nil
}

type exaSearchRequest struct {
	Query              string      `json:"query"`
	Type               string      `json:"type"`
	NumResults         int         `json:"numResults"`
	StartPublishedDate string      `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string      `json:"endPublishedDate,omitempty"`
	Contents           exaContents `json:"contents"`
}

type exaContents struct {
	Summary   *exaSummary `json:"summary,omitempty"`
	Livecrawl string      `json:"livecrawl,omitempty"`
	Extras    *exaExtras  `json:"extras,omitempty"`
}

type exaSummary struct {
	Query string `json:"query"`
}

type exaExtras struct {
	Links      int `json:"links"`
	ImageLinks int `json:"imageLinks"`
}

type exaSearchResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PublishedDate string `json:"publishedDate"`
		Summary       string `json:"summary"`
		Text          string `json:"text"`
	} `json:"results"`
}

// truncate keeps the first n characters of s, counted in runes.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}

// isoDay formats t as YYYY-MM-DD for providers with day-granular filters.
func isoDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
