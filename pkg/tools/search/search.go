// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package search provides the web search and deep research tools, plus
// access to archived research reports.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leseb/beebot-mcp/pkg/archive"
	"github.com/leseb/beebot-mcp/pkg/llm"
	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
	"github.com/leseb/beebot-mcp/pkg/websearch"
)

const day = 24 * time.Hour

// Synthesizer condenses research findings. *llm.Synthesizer implements it.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic, focus string, sources []llm.Source) (string, error)
}

// Options wires the search tools to their collaborators. Synthesizer and
// Archive are optional.
type Options struct {
	Provider    websearch.Provider
	Synthesizer Synthesizer
	Archive     archive.Archive
	Logger      *logging.Logger
	Now         func() time.Time
}

// Tools implements the search toolset.
type Tools struct {
	provider    websearch.Provider
	synthesizer Synthesizer
	archive     archive.Archive
	logger      *logging.Logger
	now         func() time.Time
}

// New creates the search toolset.
func New(opts Options) *Tools {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tools{
		provider:    opts.Provider,
		synthesizer: opts.Synthesizer,
		archive:     opts.Archive,
		logger:      opts.Logger.Component("search"),
		now:         opts.Now,
	}
}

// All returns the search tools; the report tools are included only when
// an archive is configured.
func (t *Tools) All() []toolkit.Tool {
	tools := []toolkit.Tool{t.WebSearch(), t.DeepResearch()}
	if t.archive != nil {
		tools = append(tools, t.ListReports(), t.GetReport(), t.DeleteReport())
	}
	return tools
}

// WebSearch returns the web_search tool.
func (t *Tools) WebSearch() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "web_search",
			Description: "Search the web for current information and content",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"query":       toolkit.String("Search query"),
				"num_results": toolkit.Integer("Number of results to return (1-10)").Between(1, 10).WithDefault(5),
			}, "query"),
		},
		Handler: t.webSearch,
	}
}

func (t *Tools) webSearch(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	query := args.String("query")
	now := t.now()

	results, err := t.provider.Search(ctx, websearch.Request{
		Query:          query,
		MaxResults:     args.Int("num_results"),
		StartPublished: now.Add(-365 * day),
		EndPublished:   now,
		SummaryQuery:   "Generate concise summary with key information and takeaways",
	})
	if err != nil {
		t.logger.Warn("web search failed", "query", query, "error", err)
		return toolkit.ErrorResult("Error performing web search: %v", err), nil
	}
	return toolkit.TextResult(FormatSearchResults(query, results)), nil
}

// FormatSearchResults renders web_search output.
func FormatSearchResults(query string, results []websearch.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "**Result %d: %s**\n", i+1, r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "Published: %s\n", r.PublishedDate)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "Summary: %s\n", r.Snippet)
		}
		b.WriteString("---\n")
		blocks = append(blocks, b.String())
	}
	return fmt.Sprintf("Search Results for: \"%s\"\n\n", query) + strings.Join(blocks, "\n")
}
