// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package reader fetches web pages as text, through the Jina reader API
// or by downloading and extracting them directly.
package reader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/reader/extractor"
	"github.com/leseb/beebot-mcp/pkg/upstream"
)

const (
	// DefaultBaseURL is the Jina reader endpoint.
	DefaultBaseURL = "https://r.jina.ai"
	// DefaultMaxChars bounds the text returned for one page.
	DefaultMaxChars = 20000
)

// ErrNoScreenshot is returned when the reader response carries no image.
var ErrNoScreenshot = errors.New("no screenshot in reader response")

// Options configures a Reader.
type Options struct {
	BaseURL string
	APIKey  string
	// Direct skips Jina and always fetches pages directly.
	Direct bool
	// FallbackDirect retries a failed Jina read with a direct fetch.
	FallbackDirect bool
	MaxChars       int
	Logger         *logging.Logger
}

// Page is the readable content of a URL.
type Page struct {
	URL       string
	Title     string
	Content   string
	Source    string
	Truncated bool
}

// Screenshot is a captured rendering of a URL.
type Screenshot struct {
	URL   string
	Title string
	Image string
}

// Reader reads pages.
type Reader struct {
	client   *upstream.Client
	baseURL  string
	apiKey   string
	direct   bool
	fallback bool
	maxChars int
	logger   *logging.Logger
}

// New creates a reader that sends its requests through client.
func New(client *upstream.Client, opts Options) *Reader {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Reader{
		client:   client,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		direct:   opts.Direct,
		fallback: opts.FallbackDirect,
		maxChars: opts.MaxChars,
		logger:   opts.Logger.Component("reader"),
	}
}

// Read returns the text of target, truncated to the configured limit.
func (r *Reader) Read(ctx context.Context, target string) (*Page, error) {
	var page *Page
	var err error
	if r.direct {
		page, err = r.fetchDirect(ctx, target)
	} else {
		page, err = r.fetchJina(ctx, target)
		if err != nil && r.fallback && ctx.Err() == nil {
			r.logger.Warn("jina read failed, fetching directly", "url", target, "error", err)
			page, err = r.fetchDirect(ctx, target)
		}
	}
	if err != nil {
		return nil, err
	}
	page.Content, page.Truncated = Truncate(page.Content, r.maxChars)
	return page, nil
}

// Screenshot asks Jina to render target and returns the image location.
func (r *Reader) Screenshot(ctx context.Context, target string) (*Screenshot, error) {
	headers := r.jinaHeaders()
	headers.Set("X-With-Images-Screenshot", "true")
	headers.Set("X-Return-Format", "screenshot")

	data, err := r.callJina(ctx, target, headers)
	if err != nil {
		return nil, err
	}
	image := data.ScreenshotURL
	if image == "" {
		image = data.Screenshot
	}
	if image == "" {
		return nil, fmt.Errorf("screenshot %s: %w", target, ErrNoScreenshot)
	}
	return &Screenshot{URL: firstNonEmpty(data.URL, target), Title: data.Title, Image: image}, nil
}

func (r *Reader) fetchJina(ctx context.Context, target string) (*Page, error) {
	data, err := r.callJina(ctx, target, r.jinaHeaders())
	if err != nil {
		return nil, err
	}
	return &Page{
		URL:     firstNonEmpty(data.URL, target),
		Title:   data.Title,
		Content: strings.TrimSpace(data.Content),
		Source:  "jina",
	}, nil
}

func (r *Reader) callJina(ctx context.Context, target string, headers http.Header) (*jinaData, error) {
	resp, err := r.client.Get(ctx, r.baseURL+"/"+url.PathEscape(target), headers)
	if err != nil {
		return nil, fmt.Errorf("jina reader: %w", err)
	}

	var envelope jinaResponse
	if err := json.Unmarshal(resp.Body, &envelope); err != nil || envelope.Data == nil {
		// Markdown bodies are used as they are.
		return &jinaData{Content: string(resp.Body)}, nil
	}
	return envelope.Data, nil
}

func (r *Reader) jinaHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	if r.apiKey != "" {
		headers.Set("Authorization", "Bearer "+r.apiKey)
	}
	return headers
}

func (r *Reader) fetchDirect(ctx context.Context, target string) (*Page, error) {
	headers := http.Header{}
	headers.Set("Accept", "text/html, application/xhtml+xml, application/pdf, text/plain;q=0.9, */*;q=0.8")

	resp, err := r.client.Get(ctx, target, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	name := target
	if u, err := url.Parse(target); err == nil {
		name = u.Path
	}
	doc, err := extractor.Extract(resp.Body, resp.ContentType, name)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", target, err)
	}
	return &Page{URL: target, Title: doc.Title, Content: doc.Text, Source: "direct"}, nil
}

// Truncate cuts s to at most max runes and appends a marker when it did.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	total := utf8.RuneCountInString(s)
	cut := 0
	for i := range s {
		if cut == max {
			return s[:i] + fmt.Sprintf("\n\n[truncated: showing first %d of %d characters]", max, total), true
		}
		cut++
	}
	return s, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type jinaResponse struct {
	Code int       `json:"code"`
	Data *jinaData `json:"data"`
}

type jinaData struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	ScreenshotURL string `json:"screenshotUrl"`
	Screenshot    string `json:"screenshot"`
}
