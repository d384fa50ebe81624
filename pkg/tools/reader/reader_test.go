// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/reader"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
	"github.com/leseb/beebot-mcp/pkg/websearch"
)

type fakePages struct {
	page *reader.Page
	shot *reader.Screenshot
	err  error
}

func (f *fakePages) Read(context.Context, string) (*reader.Page, error) { return f.page, f.err }

func (f *fakePages) Screenshot(context.Context, string) (*reader.Screenshot, error) {
	return f.shot, f.err
}

type fakeSearch struct {
	got     websearch.Request
	results []websearch.SearchResult
	err     error
}

func (f *fakeSearch) Search(_ context.Context, req websearch.Request) ([]websearch.SearchResult, error) {
	f.got = req
	return f.results, f.err
}

func call(t *testing.T, tool toolkit.Tool, args map[string]any) *mcp.ToolCallResult {
	t.Helper()
	validated, err := tool.InputSchema.Validate(args)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	res, err := tool.Handler(context.Background(), validated)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return res
}

func TestReadURL(t *testing.T) {
	pages := &fakePages{page: &reader.Page{URL: "https://example.com", Title: "Example", Content: "Body"}}
	res := call(t, New(pages, nil, nil, nil).ReadURL(), map[string]any{"url": "https://example.com"})
	if res.IsError || res.Text() != "**Example**\nURL: https://example.com\n\nBody" {
		t.Errorf("got %+v", res)
	}

	pages.err = errors.New("jina reader: 451")
	res = call(t, New(pages, nil, nil, nil).ReadURL(), map[string]any{"url": "https://example.com"})
	if !res.IsError || res.Text() != "Error reading URL: jina reader: 451" {
		t.Errorf("got %+v", res)
	}
}

func TestReadURL_RejectsNonWebURL(t *testing.T) {
	tool := New(&fakePages{}, nil, nil, nil).ReadURL()
	_, err := tool.InputSchema.Validate(map[string]any{"url": "file:///etc/passwd"})
	var argErr *toolkit.ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgumentError, got %v", err)
	}
}

func TestCaptureScreenshot(t *testing.T) {
	pages := &fakePages{shot: &reader.Screenshot{URL: "https://example.com", Image: "https://cdn/shot.png"}}
	res := call(t, New(pages, nil, nil, nil).CaptureScreenshot(), map[string]any{"url": "https://example.com"})
	want := "Screenshot of https://example.com\n\n![https://example.com](https://cdn/shot.png)"
	if res.IsError || res.Text() != want {
		t.Errorf("got %q", res.Text())
	}
}

func TestSearchArxiv(t *testing.T) {
	arxiv := &fakeSearch{results: []websearch.SearchResult{{Title: "Attention", URL: "https://arxiv.org/abs/1706.03762", Snippet: "Transformers."}}}
	tools := New(&fakePages{}, nil, arxiv, nil)

	res := call(t, tools.SearchArxiv(), map[string]any{"query": "attention", "num_results": 2})
	if res.IsError || !strings.Contains(res.Text(), "**Result 1: Attention**\nURL: https://arxiv.org/abs/1706.03762\n") {
		t.Errorf("got %q", res.Text())
	}
	if arxiv.got.MaxResults != 2 || arxiv.got.Query != "attention" {
		t.Errorf("request = %+v", arxiv.got)
	}

	arxiv.err = errors.New("boom")
	res = call(t, tools.SearchArxiv(), map[string]any{"query": "attention"})
	if !res.IsError || res.Text() != "Error searching arXiv: boom" {
		t.Errorf("got %+v", res)
	}
}

func TestAll(t *testing.T) {
	names := func(tools []toolkit.Tool) string {
		var out []string
		for _, tool := range tools {
			out = append(out, tool.Name)
		}
		return strings.Join(out, ",")
	}
	if got := names(New(&fakePages{}, nil, nil, nil).All()); got != "read_url,capture_screenshot_url" {
		t.Errorf("got %s", got)
	}
	if got := names(New(&fakePages{}, &fakeSearch{}, &fakeSearch{}, nil).All()); got != "read_url,capture_screenshot_url,search_web_jina,search_arxiv" {
		t.Errorf("got %s", got)
	}
}
