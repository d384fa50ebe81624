// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"MCP_TOOLSET", "MCP_TRANSPORT", "MCP_ADDR", "MCP_TOKEN", "LOG_LEVEL", "LOG_FORMAT",
	"NWS_BASE_URL", "SEARCH_PROVIDER", "EXA_API_KEY", "SEARCH_API_KEY", "JINA_API_KEY",
	"READER_DIRECT", "LLM_API_KEY", "DEEPSEEK_API_KEY", "LLM_ENDPOINT", "LLM_MODEL",
	"CACHE_TYPE", "CACHE_DSN", "ARCHIVE_TYPE", "ARCHIVE_BASE_DIR", "ARCHIVE_S3_BUCKET",
	"ARCHIVE_S3_REGION", "ARCHIVE_S3_ENDPOINT",
}

// clearEnv blanks every variable the loader reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	if cfg.Server.Toolset != ToolsetWeather || cfg.Server.Transport != TransportStdio {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ToolTimeout != 45*time.Second {
		t.Errorf("tool timeout = %v", cfg.Server.ToolTimeout)
	}
	if cfg.Weather.BaseURL != "https://api.weather.gov" || cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("weather defaults: %+v %+v", cfg.Weather, cfg.HTTP)
	}
	if cfg.Cache.Type != "none" || cfg.Archive.Type != "none" {
		t.Errorf("cache/archive = %q/%q", cfg.Cache.Type, cfg.Archive.Type)
	}
	if cfg.LLM.Enabled() {
		t.Error("llm should be disabled without a key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  toolset: search,reader
  tool_timeout: 20s
search:
  provider: brave
  api_key: file-key
cache:
  type: sqlite
  ttl: 1h
archive:
  type: filesystem
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ToolTimeout != 20*time.Second || cfg.Server.Transport != TransportStdio {
		t.Errorf("server = %+v", cfg.Server)
	}
	if got := strings.Join(cfg.Toolsets(), ","); got != "search,reader" {
		t.Errorf("toolsets = %s", got)
	}
	if cfg.Search.Provider != "brave" || cfg.Search.APIKey != "file-key" {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Cache.DSN != ":memory:" || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Archive.BaseDir != "reports" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.Reader.MaxChars != 20000 {
		t.Errorf("reader defaults lost: %+v", cfg.Reader)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXA_API_KEY", "exa-key")
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("JINA_API_KEY", "jina-key")
	t.Setenv("NWS_BASE_URL", "http://nws.local")
	t.Setenv("ARCHIVE_TYPE", "s3")
	t.Setenv("ARCHIVE_S3_BUCKET", "reports")
	t.Setenv("READER_DIRECT", "true")

	cfg, err := Load(writeConfig(t, "search:\n  api_key: file-key\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.APIKey != "exa-key" {
		t.Errorf("EXA_API_KEY should override the file, got %q", cfg.Search.APIKey)
	}
	if cfg.LLM.APIKey != "ds-key" || !cfg.LLM.Enabled() {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Reader.APIKey != "jina-key" || !cfg.Reader.Direct {
		t.Errorf("reader = %+v", cfg.Reader)
	}
	if cfg.Weather.BaseURL != "http://nws.local" {
		t.Errorf("weather = %+v", cfg.Weather)
	}
	if cfg.Archive.Type != "s3" || cfg.Archive.Bucket != "reports" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
}

func TestLoad_LLMKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("LLM_API_KEY", "generic-key")
	if got := Default().LLM.APIKey; got != "generic-key" {
		t.Errorf("LLM_API_KEY should win, got %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := Load(writeConfig(t, "server: [not, a, map]")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid default"},
		{
			name:    "unknown toolset",
			mutate:  func(c *Config) { c.Server.Toolset = "weather,stocks" },
			wantErr: `unknown toolset "stocks"`,
		},
		{
			name:    "empty toolset",
			mutate:  func(c *Config) { c.Server.Toolset = " , " },
			wantErr: "server.toolset is required",
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Server.Transport = "grpc" },
			wantErr: `unknown transport "grpc"`,
		},
		{
			name:    "search needs key",
			mutate:  func(c *Config) { c.Server.Toolset = ToolsetSearch },
			wantErr: `search.api_key is required for provider "exa"`,
		},
		{
			name: "jina search is keyless",
			mutate: func(c *Config) {
				c.Server.Toolset = ToolsetAll
				c.Search.Provider = "jina"
			},
		},
		{
			name: "unknown search provider",
			mutate: func(c *Config) {
				c.Server.Toolset = ToolsetSearch
				c.Search.Provider = "altavista"
			},
			wantErr: `unknown provider "altavista"`,
		},
		{
			name:   "search key not needed without search toolset",
			mutate: func(c *Config) { c.Server.Toolset = ToolsetReader },
		},
		{
			name:    "unknown cache",
			mutate:  func(c *Config) { c.Cache.Type = "redis" },
			wantErr: `unknown cache "redis"`,
		},
		{
			name:    "postgres needs dsn",
			mutate:  func(c *Config) { c.Cache.Type = "postgres" },
			wantErr: "cache.dsn is required",
		},
		{
			name:    "unknown archive",
			mutate:  func(c *Config) { c.Archive.Type = "ftp" },
			wantErr: `unknown archive "ftp"`,
		},
		{
			name:    "s3 needs bucket",
			mutate:  func(c *Config) { c.Archive.Type = "s3" },
			wantErr: "archive.bucket is required",
		},
		{
			name:    "timeout must be positive",
			mutate:  func(c *Config) { c.Server.ToolTimeout = 0 },
			wantErr: "tool_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			applyDefaults(cfg)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestToolsets_ExpandsAll(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Toolset: "reader, all,weather"}}
	if got := strings.Join(cfg.Toolsets(), ","); got != "reader,weather,search" {
		t.Errorf("Toolsets() = %s", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("BEEBOT_DOTENV_TEST", "")
	os.Unsetenv("BEEBOT_DOTENV_TEST")
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BEEBOT_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("missing files should be ignored: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("BEEBOT_DOTENV_TEST"); got != "from-file" {
		t.Errorf("got %q", got)
	}
}
