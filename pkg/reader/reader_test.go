// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package reader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leseb/beebot-mcp/pkg/upstream"
)

func newClient() *upstream.Client {
	return upstream.New(5*time.Second, "beebot-test")
}

func TestRead_Jina(t *testing.T) {
	var gotAuth, gotAccept, gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotTarget = strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"data":{"title":"Example","url":"https://example.com/a","content":"# Hello\n\nBody text."}}`))
	}))
	defer srv.Close()

	r := New(newClient(), Options{BaseURL: srv.URL, APIKey: "jina-key"})
	page, err := r.Read(context.Background(), "https://example.com/a?x=1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if gotTarget != "https://example.com/a?x=1" {
		t.Errorf("target = %q", gotTarget)
	}
	if gotAuth != "Bearer jina-key" || gotAccept != "application/json" {
		t.Errorf("headers: auth=%q accept=%q", gotAuth, gotAccept)
	}
	if page.Title != "Example" || page.Content != "# Hello\n\nBody text." || page.Source != "jina" || page.Truncated {
		t.Errorf("page = %+v", page)
	}
}

func TestRead_JinaMarkdownBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Title: Plain\n\nMarkdown Content:\nhello"))
	}))
	defer srv.Close()

	page, err := New(newClient(), Options{BaseURL: srv.URL}).Read(context.Background(), "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(page.Content, "hello") || page.URL != "https://example.com" {
		t.Errorf("page = %+v", page)
	}
}

func TestRead_Direct(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Direct</title></head><body><p>Fetched</p></body></html>"))
	}))
	defer site.Close()

	r := New(newClient(), Options{BaseURL: "http://127.0.0.1:1", Direct: true})
	page, err := r.Read(context.Background(), site.URL+"/page")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if page.Title != "Direct" || page.Content != "Fetched" || page.Source != "direct" {
		t.Errorf("page = %+v", page)
	}
}

func TestRead_FallbackDirect(t *testing.T) {
	var jinaCalls atomic.Int64
	jina := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jinaCalls.Add(1)
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer jina.Close()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain page"))
	}))
	defer site.Close()

	withoutFallback := New(newClient(), Options{BaseURL: jina.URL})
	_, err := withoutFallback.Read(context.Background(), site.URL)
	if !errors.Is(err, upstream.ErrStatus) {
		t.Fatalf("expected status error without fallback, got %v", err)
	}

	withFallback := New(newClient(), Options{BaseURL: jina.URL, FallbackDirect: true})
	page, err := withFallback.Read(context.Background(), site.URL)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if page.Content != "plain page" || page.Source != "direct" {
		t.Errorf("page = %+v", page)
	}
	if jinaCalls.Load() != 2 {
		t.Errorf("jina calls = %d, want 2", jinaCalls.Load())
	}
}

func TestRead_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"content":"` + strings.Repeat("é", 50) + `"}}`))
	}))
	defer srv.Close()

	page, err := New(newClient(), Options{BaseURL: srv.URL, MaxChars: 10}).Read(context.Background(), "https://x.example")
	if err != nil {
		t.Fatal(err)
	}
	if !page.Truncated || !strings.HasPrefix(page.Content, strings.Repeat("é", 10)+"\n\n[truncated") {
		t.Errorf("content = %q", page.Content)
	}
}

func TestScreenshot(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-With-Images-Screenshot")
		if strings.Contains(r.URL.Path, "blank") {
			_, _ = w.Write([]byte(`{"data":{"title":"Blank"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"title":"Shot","url":"https://example.com","screenshotUrl":"https://cdn.example/shot.png"}}`))
	}))
	defer srv.Close()

	r := New(newClient(), Options{BaseURL: srv.URL})
	shot, err := r.Screenshot(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Screenshot() error = %v", err)
	}
	if gotHeader != "true" {
		t.Errorf("screenshot header = %q", gotHeader)
	}
	if shot.Image != "https://cdn.example/shot.png" || shot.Title != "Shot" {
		t.Errorf("shot = %+v", shot)
	}

	if _, err := r.Screenshot(context.Background(), "https://blank.example"); !errors.Is(err, ErrNoScreenshot) {
		t.Errorf("expected ErrNoScreenshot, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
		cut  bool
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exact", max: 5, want: "exact"},
		{in: "abcdef", max: 3, want: "abc\n\n[truncated: showing first 3 of 6 characters]", cut: true},
		{in: "anything", max: 0, want: "anything"},
	}
	for _, tt := range tests {
		got, cut := Truncate(tt.in, tt.max)
		if got != tt.want || cut != tt.cut {
			t.Errorf("Truncate(%q, %d) = %q, %v", tt.in, tt.max, got, cut)
		}
	}
}
