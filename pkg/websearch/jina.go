// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/leseb/beebot-mcp/pkg/upstream"
)

const jinaSearchURL = "https://s.jina.ai"

func init() {
	Providers.Register("jina", func(_ context.Context, params map[string]string) (Provider, error) {
		p := NewJinaProvider(params["api_key"])
		p.baseURL = withDefault(params["base_url"], jinaSearchURL)
		p.site = params["site"]
		return p, nil
	})
}

// JinaProvider searches through the Jina search endpoint. An API key is
// optional; anonymous calls are rate limited.
type JinaProvider struct {
	apiKey  string
	baseURL string
	site    string
	client  *upstream.Client
}

// NewJinaProvider creates a new Jina search provider.
func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: jinaSearchURL,
		client:  defaultClient(),
	}
}

// NewJinaSiteProvider creates a Jina provider restricted to one site,
// e.g. "arxiv.org".
func NewJinaSiteProvider(apiKey, baseURL, site string, client *upstream.Client) *JinaProvider {
	p := NewJinaProvider(apiKey)
	p.baseURL = withDefault(baseURL, jinaSearchURL)
	p.site = site
	if client != nil {
		p.client = client
	}
	return p
}

func (j *JinaProvider) useClient(c *upstream.Client) { j.client = c }

// Search performs GET {base}/{query}?count=n[&site=...].
func (j *JinaProvider) Search(ctx context.Context, req Request) ([]SearchResult, error) {
	q := url.Values{}
	if j.site != "" {
		q.Set("site", j.site)
	}
	q.Set("count", strconv.Itoa(clampResults(req.MaxResults)))
	endpoint := strings.TrimRight(j.baseURL, "/") + "/" + url.PathEscape(req.Query) + "?" + q.Encode()

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if j.apiKey != "" {
		headers.Set("Authorization", "Bearer "+j.apiKey)
	}

	var resp jinaSearchResponse
	if err := j.client.GetJSON(ctx, endpoint, headers, &resp); err != nil {
		return nil, fmt.Errorf("jina search: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Data))
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = truncate(r.Content, 500)
		}
		results = append(results, SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       snippet,
			PublishedDate: r.Date,
		})
		if len(results) == clampResults(req.MaxResults) {
			break
		}
	}
	return results, nil
}

type jinaSearchResponse struct {
	Code int `json:"code"`
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Content     string `json:"content"`
		Date        string `json:"date"`
	} `json:"data"`
}
