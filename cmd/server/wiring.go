// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leseb/beebot-mcp/pkg/archive"
	_ "github.com/leseb/beebot-mcp/pkg/archive/filesystem"
	_ "github.com/leseb/beebot-mcp/pkg/archive/memory"
	_ "github.com/leseb/beebot-mcp/pkg/archive/s3"
	"github.com/leseb/beebot-mcp/pkg/cache"
	_ "github.com/leseb/beebot-mcp/pkg/cache/memory"
	_ "github.com/leseb/beebot-mcp/pkg/cache/sqlstore"
	"github.com/leseb/beebot-mcp/pkg/core/config"
	"github.com/leseb/beebot-mcp/pkg/llm"
	"github.com/leseb/beebot-mcp/pkg/mcp"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
	"github.com/leseb/beebot-mcp/pkg/reader"
	"github.com/leseb/beebot-mcp/pkg/server"
	"github.com/leseb/beebot-mcp/pkg/toolkit"
	readertools "github.com/leseb/beebot-mcp/pkg/tools/reader"
	"github.com/leseb/beebot-mcp/pkg/tools/search"
	"github.com/leseb/beebot-mcp/pkg/tools/weather"
	"github.com/leseb/beebot-mcp/pkg/upstream"
	"github.com/leseb/beebot-mcp/pkg/websearch"
)

// app holds everything built from the configuration.
type app struct {
	registry   *toolkit.Registry
	dispatcher *server.Dispatcher
	client     *upstream.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	archive    archive.Archive
	logger     *logging.Logger
}

func build(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = "beebot-mcp/" + cfg.Server.Version
	}
	a := &app{
		registry: toolkit.NewRegistry(),
		client:   upstream.New(cfg.HTTP.Timeout, userAgent),
		cacheTTL: cfg.Cache.TTL,
		logger:   logger,
	}

	if cfg.Cache.Type != "none" {
		c, err := cache.Providers.New(ctx, cfg.Cache.Type, cfg.Cache.Params())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}
		a.cache = c
		logger.Info("Initialized result cache", "type", cfg.Cache.Type, "ttl", cfg.Cache.TTL)
	}

	if cfg.Archive.Type != "none" {
		r, err := archive.Providers.New(ctx, cfg.Archive.Type, cfg.Archive.Params())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		a.archive = r
		logger.Info("Initialized report archive", "type", cfg.Archive.Type)
	}

	for _, name := range cfg.Toolsets() {
		var err error
		switch name {
		case config.ToolsetWeather:
			err = a.registerWeather(cfg)
		case config.ToolsetSearch:
			err = a.registerSearch(ctx, cfg)
		case config.ToolsetReader:
			err = a.registerReader(cfg)
		default:
			err = fmt.Errorf("unknown toolset %q", name)
		}
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("toolset %s: %w", name, err)
		}
	}

	a.dispatcher = server.New(a.registry, server.Options{
		Info:        mcp.Implementation{Name: cfg.Server.Name, Version: cfg.Server.Version},
		ToolTimeout: cfg.Server.ToolTimeout,
		Logger:      logger,
	})
	return a, nil
}

func (a *app) register(tools []toolkit.Tool, cached bool) error {
	for _, t := range tools {
		if cached {
			t = toolkit.Cached(a.cache, a.cacheTTL, a.logger, t)
		}
		if err := a.registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) registerWeather(cfg *config.Config) error {
	nws := weather.NewNWSClient(cfg.Weather.BaseURL, a.client)
	return a.register(weather.New(nws, a.logger).All(), false)
}

func (a *app) registerSearch(ctx context.Context, cfg *config.Config) error {
	provider, err := websearch.New(ctx, cfg.Search.Provider, map[string]string{
		"api_key":  cfg.Search.APIKey,
		"base_url": cfg.Search.BaseURL,
	}, a.client)
	if err != nil {
		return err
	}

	opts := search.Options{Provider: provider, Archive: a.archive, Logger: a.logger}
	if cfg.LLM.Enabled() {
		opts.Synthesizer = llm.New(llm.Options{
			BaseURL:    cfg.LLM.Endpoint,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			MaxTokens:  cfg.LLM.MaxTokens,
			HTTPClient: a.client.HTTPClient(),
		})
		a.logger.Info("Research synthesis enabled", "model", cfg.LLM.Model)
	}
	tools := search.New(opts)

	// Archived reports are read fresh; searches and research may be cached.
	if err := a.register([]toolkit.Tool{tools.WebSearch(), tools.DeepResearch()}, true); err != nil {
		return err
	}
	if a.archive != nil {
		return a.register([]toolkit.Tool{tools.ListReports(), tools.GetReport(), tools.DeleteReport()}, false)
	}
	return nil
}

func (a *app) registerReader(cfg *config.Config) error {
	pages := reader.New(a.client, reader.Options{
		BaseURL:        cfg.Reader.BaseURL,
		APIKey:         cfg.Reader.APIKey,
		Direct:         cfg.Reader.Direct,
		FallbackDirect: cfg.Reader.FallbackDirect,
		MaxChars:       cfg.Reader.MaxChars,
		Logger:         a.logger,
	})
	web := websearch.NewJinaSiteProvider(cfg.Reader.APIKey, cfg.Reader.SearchURL, "", a.client)
	arxiv := websearch.NewJinaSiteProvider(cfg.Reader.APIKey, cfg.Reader.SearchURL, "arxiv.org", a.client)
	return a.register(readertools.New(pages, web, arxiv, a.logger).All(), true)
}

// Close releases backends and idle connections. It is safe to call twice.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close cache", "error", err)
		}
		a.cache = nil
	}
	if a.archive != nil {
		if err := a.archive.Close(context.Background()); err != nil {
			a.logger.Warn("Failed to close archive", "error", err)
		}
		a.archive = nil
	}
	if a.client != nil {
		a.client.Close()
	}
}
