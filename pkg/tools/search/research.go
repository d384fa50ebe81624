// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leseb/beebot-mcp/pkg/archive"
	"github.com/leseb/beebot-mcp/pkg/llm"
	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
	"github.com/leseb/beebot-mcp/pkg/websearch"
)

const (
	researchResults    = 8
	recentResults      = 5
	recentWindow       = 90 * day
	researchWindow     = 730 * day
	maxRecentItems     = 3
	maxAnalysisItems   = 5
	maxKeySources      = 8
	defaultFocus       = "general overview"
	researchSummaryAsk = "Generate comprehensive analysis with detailed insights, key findings, recent developments, and important context"
)

// Finding is a search result that carries a summary.
type Finding struct {
	Title     string
	URL       string
	Summary   string
	Published string
}

// DeepResearch returns the deep_research tool.
func (t *Tools) DeepResearch() toolkit.Tool {
	return toolkit.Tool{
		Descriptor: toolkit.Descriptor{
			Name:        "deep_research",
			Description: "Perform comprehensive research on a topic with detailed analysis",
			InputSchema: toolkit.Object(map[string]toolkit.Property{
				"topic": toolkit.String("Research topic or question"),
				"focus": toolkit.String("Specific aspect to focus on (optional)").WithDefault(defaultFocus),
			}, "topic"),
		},
		Handler: t.deepResearch,
	}
}

func (t *Tools) deepResearch(ctx context.Context, args toolkit.Arguments) (*mcp.ToolCallResult, error) {
	topic := args.String("topic")
	focus := args.String("focus")
	if strings.TrimSpace(focus) == "" {
		focus = defaultFocus
	}
	now := t.now()

	findings, err := t.research(ctx, topic, focus, now)
	if err != nil {
		t.logger.Warn("deep research failed", "topic", topic, "error", err)
		return toolkit.ErrorResult("Error performing deep research: %v", err), nil
	}

	recent, older := Classify(findings, now)
	synthesis := t.synthesize(ctx, topic, focus, findings)
	report := FormatReport(topic, focus, synthesis, recent, older)

	if t.archive != nil {
		r := archive.NewReport(topic, focus, report)
		if err := t.archive.Save(ctx, r); err != nil {
			t.logger.Warn("archive report failed", "topic", topic, "error", err)
		} else {
			report += fmt.Sprintf("\nReport ID: %s\n", r.ID)
		}
	}
	return toolkit.TextResult(report), nil
}

// research runs the broad query and a recent-developments query
// concurrently. Only the broad query is required to succeed.
func (t *Tools) research(ctx context.Context, topic, focus string, now time.Time) ([]Finding, error) {
	var broad, latest []websearch.SearchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		broad, err = t.provider.Search(gctx, websearch.Request{
			Query: fmt.Sprintf("Research %s with focus on %s. Provide comprehensive analysis, key findings, "+
				"recent developments, and authoritative sources.", topic, focus),
			MaxResults:     researchResults,
			StartPublished: now.Add(-researchWindow),
			EndPublished:   now,
			SummaryQuery:   researchSummaryAsk,
		})
		return err
	})
	g.Go(func() error {
		var err error
		latest, err = t.provider.Search(gctx, websearch.Request{
			Query:          fmt.Sprintf("Latest news and developments on %s (%s)", topic, focus),
			MaxResults:     recentResults,
			StartPublished: now.Add(-recentWindow),
			EndPublished:   now,
			SummaryQuery:   researchSummaryAsk,
		})
		if err != nil {
			if gctx.Err() == nil {
				t.logger.Warn("recent developments query failed", "topic", topic, "error", err)
			}
			latest = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(broad, latest), nil
}

// Merge concatenates result lists, dropping repeated URLs and results
// without a summary.
func Merge(lists ...[]websearch.SearchResult) []Finding {
	seen := make(map[string]bool)
	var out []Finding
	for _, list := range lists {
		for _, r := range list {
			if strings.TrimSpace(r.Snippet) == "" {
				continue
			}
			key := strings.TrimRight(strings.ToLower(r.URL), "/")
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Finding{Title: r.Title, URL: r.URL, Summary: r.Snippet, Published: r.PublishedDate})
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Classify splits findings into those published within the recent window
// and the rest. Findings with missing or unparsable dates are not recent.
func Classify(findings []Finding, now time.Time) (recent, older []Finding) {
	for _, f := range findings {
		if pub, ok := parseDate(f.Published); ok && now.Sub(pub) < recentWindow {
			recent = append(recent, f)
			continue
		}
		older = append(older, f)
	}
	return recent, older
}

func (t *Tools) synthesize(ctx context.Context, topic, focus string, findings []Finding) string {
	if t.synthesizer == nil || len(findings) == 0 {
		return ""
	}
	sources := make([]llm.Source, 0, len(findings))
	for _, f := range findings {
		sources = append(sources, llm.Source{Title: f.Title, URL: f.URL, Summary: f.Summary})
	}
	text, err := t.synthesizer.Synthesize(ctx, topic, focus, sources)
	if err != nil {
		t.logger.Warn("synthesis failed", "topic", topic, "error", err)
		return ""
	}
	return text
}

// FormatReport renders the deep research report.
func FormatReport(topic, focus, synthesis string, recent, older []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Deep Research Analysis: %s**\n", topic)
	fmt.Fprintf(&b, "Focus Area: %s\n\n", focus)

	if synthesis != "" {
		b.WriteString("## Synthesis\n\n")
		b.WriteString(synthesis)
		b.WriteString("\n\n")
	}

	writeSection(&b, "## Recent Developments", recent, maxRecentItems)
	writeSection(&b, "## Comprehensive Analysis", older, maxAnalysisItems)

	b.WriteString("## Key Sources\n\n")
	all := append(append([]Finding(nil), recent...), older...)
	if len(all) > maxKeySources {
		all = all[:maxKeySources]
	}
	for i, f := range all {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, f.Title, f.URL)
	}
	return b.String()
}

func writeSection(b *strings.Builder, heading string, findings []Finding, limit int) {
	if len(findings) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	if len(findings) > limit {
		findings = findings[:limit]
	}
	for _, f := range findings {
		fmt.Fprintf(b, "**%s**\n", f.Title)
		fmt.Fprintf(b, "Source: %s\n", f.URL)
		if f.Published != "" {
			fmt.Fprintf(b, "Published: %s\n", f.Published)
		}
		fmt.Fprintf(b, "%s\n\n---\n\n", f.Summary)
	}
}
