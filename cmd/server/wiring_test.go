// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leseb/beebot-mcp/pkg/core/config"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/provider"
	"github.com/leseb/beebot-mcp/pkg/tools/weather/weathertest"
)

func testConfig(toolset string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Name:        "beebot-mcp",
			Version:     "test",
			Toolset:     toolset,
			Transport:   config.TransportStdio,
			ToolTimeout: 5 * time.Second,
		},
		HTTP:    config.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "beebot-test"},
		Search:  config.SearchConfig{Provider: "jina"},
		Reader:  config.ReaderConfig{MaxChars: 100},
		Cache:   config.CacheConfig{Type: "memory", TTL: time.Minute},
		Archive: config.ArchiveConfig{Type: "memory"},
	}
}

func toolNames(a *app) string {
	var names []string
	for _, d := range a.registry.List() {
		names = append(names, d.Name)
	}
	return strings.Join(names, ",")
}

func TestBuild_AllToolsets(t *testing.T) {
	a, err := build(context.Background(), testConfig(config.ToolsetAll), logging.Discard())
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer a.Close()

	want := "get_forecast,get_weather_by_city,get_alerts," +
		"web_search,deep_research,list_reports,get_report,delete_report," +
		"read_url,capture_screenshot_url,search_web_jina,search_arxiv"
	if got := toolNames(a); got != want {
		t.Errorf("tools = %s\nwant    %s", got, want)
	}
}

func TestBuild_NoArchiveHidesReportTools(t *testing.T) {
	cfg := testConfig(config.ToolsetSearch)
	cfg.Archive.Type = "none"
	cfg.Cache.Type = "none"
	a, err := build(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if got := toolNames(a); got != "web_search,deep_research" {
		t.Errorf("tools = %s", got)
	}
}

func TestBuild_SynthesisEnabled(t *testing.T) {
	cfg := testConfig(config.ToolsetSearch)
	cfg.LLM = config.LLMConfig{Endpoint: "http://127.0.0.1:1/v1", APIKey: "k", Model: "test-model", MaxTokens: 256}

	var logs bytes.Buffer
	logger := logging.New(logging.Config{Level: "info", Output: &logs})
	a, err := build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer a.Close()

	if !strings.Contains(logs.String(), "Research synthesis enabled") || !strings.Contains(logs.String(), "model=test-model") {
		t.Errorf("synthesizer not wired, logs:\n%s", logs.String())
	}
}

func TestBuild_UnknownBackend(t *testing.T) {
	cfg := testConfig(config.ToolsetWeather)
	cfg.Cache.Type = "redis"
	_, err := build(context.Background(), cfg, logging.Discard())
	if !errors.Is(err, provider.ErrUnknownProvider) {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestBuild_ServesWeatherOverStdio(t *testing.T) {
	stub := weathertest.NewStub(t, 2)
	cfg := testConfig(config.ToolsetWeather)
	cfg.Weather.BaseURL = stub.URL

	a, err := build(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_forecast","arguments":{"latitude":40.7,"longitude":-74}}}` + "\n")
	var out bytes.Buffer
	if err := a.dispatcher.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if !strings.Contains(out.String(), weathertest.PeriodName(0)) {
		t.Errorf("response = %s", out.String())
	}
}
