// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leseb/beebot-mcp/pkg/archive/memory"
	"github.com/leseb/beebot-mcp/pkg/llm"
	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
	"github.com/leseb/beebot-mcp/pkg/websearch"
)

var fixedNow = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)

// fakeProvider answers the broad research query and the recent query
// with different result sets.
type fakeProvider struct {
	mu        sync.Mutex
	requests  []websearch.Request
	broad     []websearch.SearchResult
	recent    []websearch.SearchResult
	broadErr  error
	recentErr error
}

func (f *fakeProvider) Search(_ context.Context, req websearch.Request) ([]websearch.SearchResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if strings.HasPrefix(req.Query, "Latest news") {
		return f.recent, f.recentErr
	}
	return f.broad, f.broadErr
}

func (f *fakeProvider) requestFor(prefix string) (websearch.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if strings.HasPrefix(r.Query, prefix) {
			return r, true
		}
	}
	return websearch.Request{}, false
}

type fakeSynth struct {
	text string
	err  error
	got  []llm.Source
}

func (f *fakeSynth) Synthesize(_ context.Context, _, _ string, sources []llm.Source) (string, error) {
	f.got = sources
	return f.text, f.err
}

func run(t *testing.T, tool toolkit.Tool, args map[string]any) *mcp.ToolCallResult {
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

func TestWebSearch_Format(t *testing.T) {
	p := &fakeProvider{broad: []websearch.SearchResult{
		{Title: "Go 1.25", URL: "https://go.dev/blog", PublishedDate: "2025-08-01", Snippet: "Release notes."},
		{Title: "Bare", URL: "https://bare.example"},
	}}
	tools := New(Options{Provider: p, Now: func() time.Time { return fixedNow }})

	res := run(t, tools.WebSearch(), map[string]any{"query": "go release"})
	want := "Search Results for: \"go release\"\n\n" +
		"**Result 1: Go 1.25**\nURL: https://go.dev/blog\nPublished: 2025-08-01\nSummary: Release notes.\n---\n" +
		"\n" +
		"**Result 2: Bare**\nURL: https://bare.example\n---\n"
	if res.IsError || res.Text() != want {
		t.Errorf("got  %q\nwant %q", res.Text(), want)
	}

	req := p.requests[0]
	if req.MaxResults != 5 {
		t.Errorf("default num_results not applied: %d", req.MaxResults)
	}
	if !req.StartPublished.Equal(fixedNow.Add(-365*day)) || !req.EndPublished.Equal(fixedNow) {
		t.Errorf("window = %v..%v", req.StartPublished, req.EndPublished)
	}
}

func TestWebSearch_ProviderError(t *testing.T) {
	p := &fakeProvider{broadErr: errors.New("exa returned status 401")}
	res := run(t, New(Options{Provider: p}).WebSearch(), map[string]any{"query": "x", "num_results": 3})
	if !res.IsError || res.Text() != "Error performing web search: exa returned status 401" {
		t.Errorf("got %+v", res)
	}
}

func TestDeepResearch_Sections(t *testing.T) {
	p := &fakeProvider{
		broad: []websearch.SearchResult{
			{Title: "Old A", URL: "https://a.example", PublishedDate: "2024-01-01T00:00:00.000Z", Snippet: "sum A"},
			{Title: "No summary", URL: "https://n.example"},
			{Title: "Fresh B", URL: "https://b.example/", PublishedDate: "2025-08-01T00:00:00.000Z", Snippet: "sum B"},
			{Title: "Undated C", URL: "https://c.example", Snippet: "sum C"},
		},
		recent: []websearch.SearchResult{
			{Title: "Fresh B again", URL: "https://B.example", PublishedDate: "2025-08-01", Snippet: "dup"},
			{Title: "Fresh D", URL: "https://d.example", PublishedDate: "2025-07-30", Snippet: "sum D"},
		},
	}
	tools := New(Options{Provider: p, Now: func() time.Time { return fixedNow }})

	res := run(t, tools.DeepResearch(), map[string]any{"topic": "fusion"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Text())
	}
	want := "**Deep Research Analysis: fusion**\nFocus Area: general overview\n\n" +
		"## Recent Developments\n\n" +
		"**Fresh B**\nSource: https://b.example/\nPublished: 2025-08-01T00:00:00.000Z\nsum B\n\n---\n\n" +
		"**Fresh D**\nSource: https://d.example\nPublished: 2025-07-30\nsum D\n\n---\n\n" +
		"## Comprehensive Analysis\n\n" +
		"**Old A**\nSource: https://a.example\nPublished: 2024-01-01T00:00:00.000Z\nsum A\n\n---\n\n" +
		"**Undated C**\nSource: https://c.example\nsum C\n\n---\n\n" +
		"## Key Sources\n\n" +
		"1. [Fresh B](https://b.example/)\n2. [Fresh D](https://d.example)\n3. [Old A](https://a.example)\n4. [Undated C](https://c.example)\n"
	if res.Text() != want {
		t.Errorf("got:\n%s\nwant:\n%s", res.Text(), want)
	}

	broad, ok := p.requestFor("Research fusion with focus on general overview.")
	if !ok {
		t.Fatal("broad research query not issued")
	}
	if broad.MaxResults != 8 || !broad.StartPublished.Equal(fixedNow.Add(-730*day)) {
		t.Errorf("broad request = %+v", broad)
	}
	recent, ok := p.requestFor("Latest news")
	if !ok {
		t.Fatal("recent query not issued")
	}
	if !recent.StartPublished.Equal(fixedNow.Add(-90 * day)) {
		t.Errorf("recent window starts %v", recent.StartPublished)
	}
}

func TestDeepResearch_SectionLimits(t *testing.T) {
	var broad []websearch.SearchResult
	for i := 0; i < 6; i++ {
		broad = append(broad, websearch.SearchResult{
			Title: "recent", URL: "https://r.example/" + string(rune('a'+i)), PublishedDate: "2025-08-01", Snippet: "s",
		})
	}
	for i := 0; i < 7; i++ {
		broad = append(broad, websearch.SearchResult{
			Title: "old", URL: "https://o.example/" + string(rune('a'+i)), PublishedDate: "2020-01-01", Snippet: "s",
		})
	}
	tools := New(Options{Provider: &fakeProvider{broad: broad}, Now: func() time.Time { return fixedNow }})
	text := run(t, tools.DeepResearch(), map[string]any{"topic": "t", "focus": "f"}).Text()

	recentSection := between(text, "## Recent Developments", "## Comprehensive Analysis")
	if n := strings.Count(recentSection, "**recent**"); n != 3 {
		t.Errorf("recent items = %d, want 3", n)
	}
	analysis := between(text, "## Comprehensive Analysis", "## Key Sources")
	if n := strings.Count(analysis, "**old**"); n != 5 {
		t.Errorf("analysis items = %d, want 5", n)
	}
	keys := text[strings.Index(text, "## Key Sources"):]
	if !strings.Contains(keys, "8. [") || strings.Contains(keys, "9. [") {
		t.Errorf("key sources not capped at 8:\n%s", keys)
	}
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	j := strings.Index(s, end)
	if i < 0 || j < i {
		return ""
	}
	return s[i:j]
}

func TestDeepResearch_BroadFailureIsToolError(t *testing.T) {
	p := &fakeProvider{broadErr: errors.New("timeout")}
	res := run(t, New(Options{Provider: p}).DeepResearch(), map[string]any{"topic": "x"})
	if !res.IsError || !strings.HasPrefix(res.Text(), "Error performing deep research: ") {
		t.Errorf("got %+v", res)
	}
}

func TestDeepResearch_RecentFailureIsTolerated(t *testing.T) {
	p := &fakeProvider{
		broad:     []websearch.SearchResult{{Title: "A", URL: "https://a", Snippet: "s"}},
		recentErr: errors.New("rate limited"),
	}
	res := run(t, New(Options{Provider: p}).DeepResearch(), map[string]any{"topic": "x"})
	if res.IsError || !strings.Contains(res.Text(), "1. [A](https://a)") {
		t.Errorf("got %+v", res)
	}
}

func TestDeepResearch_SynthesisAndArchive(t *testing.T) {
	p := &fakeProvider{broad: []websearch.SearchResult{{Title: "A", URL: "https://a", Snippet: "s"}}}
	synth := &fakeSynth{text: "Everything is fine."}
	store := memory.New()
	tools := New(Options{Provider: p, Synthesizer: synth, Archive: store, Now: func() time.Time { return fixedNow }})

	text := run(t, tools.DeepResearch(), map[string]any{"topic": "x", "focus": "y"}).Text()
	if !strings.Contains(text, "Focus Area: y\n\n## Synthesis\n\nEverything is fine.\n\n## Comprehensive Analysis") {
		t.Errorf("synthesis not placed after header:\n%s", text)
	}
	if len(synth.got) != 1 || synth.got[0].URL != "https://a" {
		t.Errorf("synthesizer got %+v", synth.got)
	}

	m := regexp.MustCompile(`\nReport ID: ([0-9a-f-]{36})\n$`).FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("report id line missing:\n%s", text)
	}

	got := run(t, tools.GetReport(), map[string]any{"id": m[1]})
	if got.IsError || !strings.HasPrefix(got.Text(), "**Deep Research Analysis: x**") {
		t.Errorf("get_report = %+v", got)
	}
	if strings.Contains(got.Text(), "Report ID:") {
		t.Error("archived content should not include the id line")
	}

	list := run(t, tools.ListReports(), map[string]any{})
	if !strings.Contains(list.Text(), m[1]) || !strings.Contains(list.Text(), "x (focus: y)") {
		t.Errorf("list_reports = %q", list.Text())
	}
}

func TestDeepResearch_SynthesisFailureIsIgnored(t *testing.T) {
	p := &fakeProvider{broad: []websearch.SearchResult{{Title: "A", URL: "https://a", Snippet: "s"}}}
	tools := New(Options{Provider: p, Synthesizer: &fakeSynth{err: errors.New("llm down")}})
	res := run(t, tools.DeepResearch(), map[string]any{"topic": "x"})
	if res.IsError || strings.Contains(res.Text(), "## Synthesis") {
		t.Errorf("got %+v", res)
	}
}

func TestReports_EmptyAndMissing(t *testing.T) {
	tools := New(Options{Provider: &fakeProvider{}, Archive: memory.New()})
	if got := run(t, tools.ListReports(), map[string]any{}).Text(); got != "No archived reports." {
		t.Errorf("list_reports = %q", got)
	}
	res := run(t, tools.GetReport(), map[string]any{"id": "nope"})
	if !res.IsError || res.Text() != `Report "nope" not found.` {
		t.Errorf("get_report = %+v", res)
	}
}

func TestAll_ReportToolsNeedArchive(t *testing.T) {
	if n := len(New(Options{Provider: &fakeProvider{}}).All()); n != 2 {
		t.Errorf("without archive: %d tools", n)
	}
	if n := len(New(Options{Provider: &fakeProvider{}, Archive: memory.New()}).All()); n != 5 {
		t.Errorf("with archive: %d tools", n)
	}
}

func TestClassify(t *testing.T) {
	findings := []Finding{
		{Title: "a", Published: "2025-08-01T00:00:00Z"},
		{Title: "b", Published: "2025-01-01"},
		{Title: "c", Published: "yesterday"},
		{Title: "d"},
	}
	recent, older := Classify(findings, fixedNow)
	if len(recent) != 1 || recent[0].Title != "a" {
		t.Errorf("recent = %+v", recent)
	}
	if len(older) != 3 {
		t.Errorf("older = %+v", older)
	}
}

func TestDeleteReport(t *testing.T) {
	p := &fakeProvider{broad: []websearch.SearchResult{{Title: "A", URL: "https://a", Snippet: "s"}}}
	tools := New(Options{Provider: p, Archive: memory.New(), Now: func() time.Time { return fixedNow }})

	text := run(t, tools.DeepResearch(), map[string]any{"topic": "x"}).Text()
	m := regexp.MustCompile(`\nReport ID: ([0-9a-f-]{36})\n$`).FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("report id line missing:\n%s", text)
	}

	res := run(t, tools.DeleteReport(), map[string]any{"id": m[1]})
	if res.IsError || res.Text() != "Deleted report "+m[1]+"." {
		t.Errorf("delete_report = %+v", res)
	}
	if got := run(t, tools.GetReport(), map[string]any{"id": m[1]}); !got.IsError {
		t.Errorf("get_report after delete = %+v", got)
	}
	res = run(t, tools.DeleteReport(), map[string]any{"id": m[1]})
	if !res.IsError || res.Text() != `Report "`+m[1]+`" not found.` {
		t.Errorf("second delete_report = %+v", res)
	}
}

func TestFormatSearchResults_QueryVerbatim(t *testing.T) {
	got := FormatSearchResults(`say "hi" \ café`, []websearch.SearchResult{{Title: "T", URL: "https://t"}})
	if !strings.HasPrefix(got, "Search Results for: \"say \"hi\" \\ café\"\n\n") {
		t.Errorf("header = %q", got)
	}
}
