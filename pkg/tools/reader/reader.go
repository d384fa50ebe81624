// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package reader provides the page reading tools backed by Jina.
package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/reader"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
	"github.com/leseb/beebot-mcp/pkg/tools/search"
	"github.com/leseb/beebot-mcp/pkg/websearch"
)

// PageReader reads and renders pages. *reader.Reader implements it.
type PageReader interface {
	Read(ctx context.Context, target string) (*reader.Page, error)
	Screenshot(ctx context.Context, target string) (*reader.Screenshot, error)
}

// Tools implements the reader toolset.
type Tools struct {
	pages  PageReader
	web    websearch.Provider
	arxiv  websearch.Provider
	logger *logging.Logger
}

// New creates the reader toolset. web and arxiv are Jina search providers;
// a nil provider drops its tool.
func New(pages PageReader, web, arxiv websearch.Provider, logger *logging.Logger) *Tools {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tools{pages: pages, web: web, arxiv: arxiv, logger: logger.Component("reader-tools")}
}

// All returns the reader tools.
func (t *Tools) All() []toolkit.Tool {
	tools := []toolkit.Tool{t.ReadURL(), t.CaptureScreenshot()}
	if t.web != nil {
		tools = append(tools, t.SearchWeb())
	}
	if t.arxiv != nil {
		tools = append(tools, t.SearchArxiv())
	}
	return tools
}

// ReadURL returns the read_url tool.
func (t *Tools) ReadURL() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "read_url",
			Description: "Extract clean, structured content from web pages as markdown using Jina Reader API",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"url": toolkit.URL("The URL to read and extract content from"),
			}, "url"),
		},
		Handler: t.readURL,
	}
}

func (t *Tools) readURL(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	target := args.String("url")
	page, err := t.pages.Read(ctx, target)
	if err != nil {
		t.logger.Warn("read url failed", "url", target, "error", err)
		return toolkit.ErrorResult("Error reading URL: %v", err), nil
	}

	var b strings.Builder
	if page.Title != "" {
		fmt.Fprintf(&b, "**%s**\n", page.Title)
	}
	fmt.Fprintf(&b, "URL: %s\n\n", page.URL)
	b.WriteString(page.Content)
	return toolkit.TextResult(b.String()), nil
}

// CaptureScreenshot returns the capture_screenshot_url tool.
func (t *Tools) CaptureScreenshot() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "capture_screenshot_url",
			Description: "Capture high-quality screenshots of web pages using Jina Reader API",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"url": toolkit.URL("The URL to capture a screenshot of"),
			}, "url"),
		},
		Handler: t.captureScreenshot,
	}
}

func (t *Tools) captureScreenshot(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	target := args.String("url")
	shot, err := t.pages.Screenshot(ctx, target)
	if err != nil {
		t.logger.Warn("screenshot failed", "url", target, "error", err)
		return toolkit.ErrorResult("Error capturing screenshot: %v", err), nil
	}

	title := shot.Title
	if title == "" {
		title = shot.URL
	}
	return toolkit.TextResult(fmt.Sprintf("Screenshot of %s\n\n![%s](%s)", shot.URL, title, shot.Image)), nil
}

// SearchWeb returns the search_web_jina tool.
func (t *Tools) SearchWeb() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "search_web_jina",
			Description: "Search the web for current information and news using Jina Reader API",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"query":       toolkit.String("Search query to find information on the web"),
				"num_results": toolkit.Integer("Number of results to return (1-10)").Between(1, 10).WithDefault(5),
			}, "query"),
		},
		Handler: t.searchWith(t.web, "Error performing web search: %v"),
	}
}

// SearchArxiv returns the search_arxiv tool.
func (t *Tools) SearchArxiv() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "search_arxiv",
			Description: "Search academic papers and preprints on arXiv repository using Jina Reader API",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"query":       toolkit.String("Search query for academic papers"),
				"num_results": toolkit.Integer("Number of results to return (1-10)").Between(1, 10).WithDefault(5),
			}, "query"),
		},
		Handler: t.searchWith(t.arxiv, "Error searching arXiv: %v"),
	}
}

func (t *Tools) searchWith(p websearch.Provider, failure string) toolkit.Handler {
	return func(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
		query := args.String("query")
		results, err := p.Search(ctx, websearch.Request{Query: query, MaxResults: args.Int("num_results")})
		if err != nil {
			t.logger.Warn("jina search failed", "query", query, "error", err)
			return toolkit.ErrorResult(failure, err), nil
		}
		return toolkit.TextResult(search.FormatSearchResults(query, results)), nil
	}
}
