// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Toolset names accepted by server.toolset.
const (
	ToolsetWeather = "weather"
	ToolsetSearch  = "search"
	ToolsetReader  = "reader"
	ToolsetAll     = "all"
)

// Transport names accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

var (
	knownToolsets  = []string{ToolsetWeather, ToolsetSearch, ToolsetReader}
	knownSearch    = []string{"exa", "brave", "tavily", "jina"}
	knownCaches    = []string{"none", "memory", "sqlite", "postgres"}
	knownArchives  = []string{"none", "memory", "filesystem", "s3"}
	knownTransport = []string{TransportStdio, TransportHTTP}
)

// Config represents the main configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
	Weather WeatherConfig `yaml:"weather"`
	Search  SearchConfig  `yaml:"search"`
	Reader  ReaderConfig  `yaml:"reader"`
	LLM     LLMConfig     `yaml:"llm"`
	Cache   CacheConfig   `yaml:"cache"`
	Archive ArchiveConfig `yaml:"archive"`
}

// ServerConfig selects what the process serves and how
type ServerConfig struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	Toolset     string        `yaml:"toolset"`   // comma separated, or "all"
	Transport   string        `yaml:"transport"` // "stdio" (default) or "http"
	Addr        string        `yaml:"addr"`      // listen address for the http transport
	AuthToken   string        `yaml:"auth_token"`
	ToolTimeout time.Duration `yaml:"tool_timeout"`
}

// HTTPConfig configures the shared outbound HTTP client
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"` // defaults to "beebot-mcp/<version>"
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WeatherConfig configures the National Weather Service client
type WeatherConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SearchConfig selects the web search backend
type SearchConfig struct {
	Provider string `yaml:"provider"` // "exa" (default), "brave", "tavily" or "jina"
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// ReaderConfig configures the Jina page reader
type ReaderConfig struct {
	BaseURL        string `yaml:"base_url"`   // e.g. "https://r.jina.ai"
	SearchURL      string `yaml:"search_url"` // e.g. "https://s.jina.ai"
	APIKey         string `yaml:"api_key"`
	Direct         bool   `yaml:"direct"`
	FallbackDirect bool   `yaml:"fallback_direct"`
	MaxChars       int    `yaml:"max_chars"`
}

// LLMConfig configures the optional research synthesizer
type LLMConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// Enabled reports whether research synthesis is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// CacheConfig selects the tool result cache backend
type CacheConfig struct {
	Type string        `yaml:"type"` // "none" (default), "memory", "sqlite" or "postgres"
	DSN  string        `yaml:"dsn"`
	TTL  time.Duration `yaml:"ttl"`
}

// Params returns the backend factory parameters.
func (c CacheConfig) Params() map[string]string {
	return map[string]string{"dsn": c.DSN}
}

// ArchiveConfig selects the research report archive backend
type ArchiveConfig struct {
	Type     string `yaml:"type"` // "none" (default), "memory", "filesystem" or "s3"
	BaseDir  string `yaml:"base_dir"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"` // custom S3 endpoint, e.g. MinIO
}

// Params returns the backend factory parameters.
func (c ArchiveConfig) Params() map[string]string {
	return map[string]string{
		"base_dir": c.BaseDir,
		"bucket":   c.Bucket,
		"region":   c.Region,
		"prefix":   c.Prefix,
		"endpoint": c.Endpoint,
	}
}

// LoadDotEnv loads variables from .env files that exist. Variables already
// set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from a YAML file. Values missing from the file
// keep their defaults; environment variables override both.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns default configuration with environment overrides applied
func Default() *Config {
	cfg := defaults()
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:        "beebot-mcp",
			Toolset:     ToolsetWeather,
			Transport:   TransportStdio,
			Addr:        ":8080",
			ToolTimeout: 45 * time.Second,
		},
		HTTP:    HTTPConfig{Timeout: 30 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Weather: WeatherConfig{BaseURL: "https://api.weather.gov"},
		Search:  SearchConfig{Provider: "exa"},
		Reader: ReaderConfig{
			BaseURL:   "https://r.jina.ai",
			SearchURL: "https://s.jina.ai",
			MaxChars:  20000,
		},
		LLM: LLMConfig{
			Endpoint:  "https://api.deepseek.com",
			Model:     "deepseek-chat",
			MaxTokens: 1024,
		},
		Cache:   CacheConfig{Type: "none", TTL: 10 * time.Minute},
		Archive: ArchiveConfig{Type: "none"},
	}
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&cfg.Server.Toolset, "MCP_TOOLSET")
	setString(&cfg.Server.Transport, "MCP_TRANSPORT")
	setString(&cfg.Server.Addr, "MCP_ADDR")
	setString(&cfg.Server.AuthToken, "MCP_TOKEN")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	setString(&cfg.Weather.BaseURL, "NWS_BASE_URL")

	setString(&cfg.Search.Provider, "SEARCH_PROVIDER")
	if cfg.Search.Provider == "exa" {
		setString(&cfg.Search.APIKey, "EXA_API_KEY")
	}
	setString(&cfg.Search.APIKey, "SEARCH_API_KEY")

	setString(&cfg.Reader.APIKey, "JINA_API_KEY")
	if cfg.Search.Provider == "jina" && cfg.Search.APIKey == "" {
		cfg.Search.APIKey = cfg.Reader.APIKey
	}
	if v, err := strconv.ParseBool(os.Getenv("READER_DIRECT")); err == nil {
		cfg.Reader.Direct = v
	}

	setString(&cfg.LLM.APIKey, "LLM_API_KEY", "DEEPSEEK_API_KEY")
	setString(&cfg.LLM.Endpoint, "LLM_ENDPOINT")
	setString(&cfg.LLM.Model, "LLM_MODEL")

	setString(&cfg.Cache.Type, "CACHE_TYPE")
	setString(&cfg.Cache.DSN, "CACHE_DSN")

	setString(&cfg.Archive.Type, "ARCHIVE_TYPE")
	setString(&cfg.Archive.BaseDir, "ARCHIVE_BASE_DIR")
	setString(&cfg.Archive.Bucket, "ARCHIVE_S3_BUCKET")
	setString(&cfg.Archive.Region, "ARCHIVE_S3_REGION")
	setString(&cfg.Archive.Endpoint, "ARCHIVE_S3_ENDPOINT")
}

func applyDefaults(cfg *Config) {
	cfg.Server.Toolset = strings.ToLower(strings.TrimSpace(cfg.Server.Toolset))
	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	cfg.Search.Provider = strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "none"
	}
	if cfg.Cache.Type == "sqlite" && cfg.Cache.DSN == "" {
		cfg.Cache.DSN = ":memory:"
	}
	if cfg.Archive.Type == "" {
		cfg.Archive.Type = "none"
	}
	if cfg.Archive.Type == "filesystem" && cfg.Archive.BaseDir == "" {
		cfg.Archive.BaseDir = "reports"
	}
}

// Toolsets returns the selected toolset names with "all" expanded.
func (c *Config) Toolsets() []string {
	var out []string
	for _, name := range strings.Split(c.Server.Toolset, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
		case name == ToolsetAll:
			for _, t := range knownToolsets {
				if !slices.Contains(out, t) {
					out = append(out, t)
				}
			}
		case !slices.Contains(out, name):
			out = append(out, name)
		}
	}
	return out
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	toolsets := c.Toolsets()
	if len(toolsets) == 0 {
		errs = append(errs, errors.New("server.toolset is required"))
	}
	for _, t := range toolsets {
		if !slices.Contains(knownToolsets, t) {
			errs = append(errs, fmt.Errorf("server.toolset: unknown toolset %q", t))
		}
	}
	if !slices.Contains(knownTransport, c.Server.Transport) {
		errs = append(errs, fmt.Errorf("server.transport: unknown transport %q", c.Server.Transport))
	}
	if c.Server.Transport == TransportHTTP && c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required for the http transport"))
	}
	if c.Server.ToolTimeout <= 0 {
		errs = append(errs, errors.New("server.tool_timeout must be positive"))
	}

	if slices.Contains(toolsets, ToolsetSearch) {
		if !slices.Contains(knownSearch, c.Search.Provider) {
			errs = append(errs, fmt.Errorf("search.provider: unknown provider %q", c.Search.Provider))
		} else if c.Search.APIKey == "" && c.Search.Provider != "jina" {
			errs = append(errs, fmt.Errorf("search.api_key is required for provider %q", c.Search.Provider))
		}
	}

	if !slices.Contains(knownCaches, c.Cache.Type) {
		errs = append(errs, fmt.Errorf("cache.type: unknown cache %q", c.Cache.Type))
	}
	if c.Cache.Type == "postgres" && c.Cache.DSN == "" {
		errs = append(errs, errors.New("cache.dsn is required for the postgres cache"))
	}

	if !slices.Contains(knownArchives, c.Archive.Type) {
		errs = append(errs, fmt.Errorf("archive.type: unknown archive %q", c.Archive.Type))
	}
	if c.Archive.Type == "s3" && c.Archive.Bucket == "" {
		errs = append(errs, errors.New("archive.bucket is required for the s3 archive"))
	}

	return errors.Join(errs...)
}
