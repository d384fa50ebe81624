// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/leseb/beebot-mcp/pkg/adapters/http"
	"github.com/leseb/beebot-mcp/pkg/core/config"
	"github.com/leseb/beebot-mcp/pkg/observability/logging"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before the configuration")
	toolset := flag.String("toolset", "", "Toolsets to serve: weather, search, reader, all (comma separated)")
	transport := flag.String("transport", "", "Transport: stdio or http")
	addr := flag.String("addr", "", "Listen address for the http transport")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("BeeBot MCP Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	usingDefaults := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = config.Default()
		usingDefaults = true
	}
	if *toolset != "" {
		cfg.Server.Toolset = *toolset
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = Version
	}

	// Logs go to stderr; stdout carries protocol frames
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting BeeBot MCP server",
		"version", Version,
		"build_time", BuildTime,
		"toolsets", cfg.Toolsets(),
		"transport", cfg.Server.Transport)
	if usingDefaults {
		logger.Info("No config file found, using defaults", "path", *configPath)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	logger.Info("Registered tools", "count", a.registry.Len())

	if err := serve(ctx, cfg, a, logger); err != nil {
		logger.Error("Server error", "error", err)
		a.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func serve(ctx context.Context, cfg *config.Config, a *app, logger *logging.Logger) error {
	if cfg.Server.Transport == config.TransportHTTP {
		return httpAdapter.New(a.dispatcher, cfg.Server.AuthToken, logger).ListenAndServe(ctx, cfg.Server.Addr)
	}

	// A blocked stdin read cannot be interrupted, so the loop runs on its own
	// and a signal stops the process without waiting for it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.dispatcher.Serve(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		return nil
	}
}
