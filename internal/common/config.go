// Package common provides shared utilities for Alin
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends accepted by StorageConfig.Backend
const (
	BackendMemory    = "memory"
	BackendBadger    = "badger"
	BackendRedis     = "redis"
	BackendSurrealDB = "surrealdb"
)

// LLM providers accepted by LLMConfig.Provider
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// Config holds all configuration for Alin
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Cache       CacheConfig     `toml:"cache"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the key-value backend.
type StorageConfig struct {
	Backend   string          `toml:"backend"`
	Badger    BadgerConfig    `toml:"badger"`
	Redis     RedisConfig     `toml:"redis"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// BadgerConfig holds the embedded store location
type BadgerConfig struct {
	Path string `toml:"path"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// SurrealDBConfig holds SurrealDB connection settings
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
	LLM   LLMConfig   `toml:"llm"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Exchange  string `toml:"exchange"` // suffix appended to bare tickers, e.g. "US"
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LLMConfig holds commentary provider configuration
type LLMConfig struct {
	Provider     string `toml:"provider"`
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
	ClaudeAPIKey string `toml:"claude_api_key"`
	ClaudeModel  string `toml:"claude_model"`
	MaxTokens    int    `toml:"max_tokens"`
	Timeout      string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *LLMConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// CacheConfig holds response cache lifetimes
type CacheConfig struct {
	HistoryTTL    string `toml:"history_ttl"`
	QuoteTTL      string `toml:"quote_ttl"`
	CommentaryTTL string `toml:"commentary_ttl"`
}

// GetHistoryTTL returns the lifetime of cached synthetic index histories
func (c *CacheConfig) GetHistoryTTL() time.Duration {
	return parseDurationOr(c.HistoryTTL, 15*time.Minute)
}

// GetQuoteTTL returns the lifetime of cached quotes
func (c *CacheConfig) GetQuoteTTL() time.Duration {
	return parseDurationOr(c.QuoteTTL, time.Minute)
}

// GetCommentaryTTL returns the lifetime of stored AI commentary
func (c *CacheConfig) GetCommentaryTTL() time.Duration {
	return parseDurationOr(c.CommentaryTTL, FreshnessCommentary)
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled      bool   `toml:"enabled"`
	SnapshotCron string `toml:"snapshot_cron"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: BackendBadger,
			Badger:  BadgerConfig{Path: "data/alin"},
			Redis: RedisConfig{
				Address: "127.0.0.1:6379",
			},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "alin",
				Database:  "alin",
				Username:  "root",
				Password:  "root",
			},
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				Exchange:  "US",
				RateLimit: 10,
				Timeout:   "30s",
			},
			LLM: LLMConfig{
				Provider:    ProviderGemini,
				GeminiModel: "gemini-2.0-flash",
				ClaudeModel: "claude-sonnet-4-5",
				MaxTokens:   1024,
				Timeout:     "60s",
			},
		},
		Cache: CacheConfig{
			HistoryTTL:    "15m",
			QuoteTTL:      "1m",
			CommentaryTTL: "6h",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			SnapshotCron: "30 21 * * 1-5",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console", "file"},
			FilePath: "./logs/alin.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ALIN_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ALIN_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ALIN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ALIN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("ALIN_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("ALIN_DATA_PATH"); path != "" {
		config.Storage.Badger.Path = filepath.Join(path, "alin")
	}

	if addr := os.Getenv("ALIN_REDIS_ADDRESS"); addr != "" {
		config.Storage.Redis.Address = addr
	}
	if pw := os.Getenv("ALIN_REDIS_PASSWORD"); pw != "" {
		config.Storage.Redis.Password = pw
	}

	if addr := os.Getenv("ALIN_SURREALDB_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}

	if v := firstEnv("EODHD_API_KEY", "ALIN_EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
	if v := firstEnv("GEMINI_API_KEY", "ALIN_GEMINI_API_KEY", "GOOGLE_API_KEY"); v != "" {
		config.Clients.LLM.GeminiAPIKey = v
	}
	if v := firstEnv("ANTHROPIC_API_KEY", "ALIN_CLAUDE_API_KEY"); v != "" {
		config.Clients.LLM.ClaudeAPIKey = v
	}
	if v := os.Getenv("ALIN_LLM_PROVIDER"); v != "" {
		config.Clients.LLM.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("ALIN_SCHEDULER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Scheduler.Enabled = b
		}
	}
}

// Validate rejects unknown backend and provider names.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendBadger, BackendRedis, BackendSurrealDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Clients.LLM.Provider {
	case ProviderGemini, ProviderClaude, "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.Clients.LLM.Provider)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the names of settings the server cannot run
// without.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Clients.EODHD.APIKey == "" {
		missing = append(missing, "clients.eodhd.api_key")
	}
	return missing
}

// CheckRequired fails in production when required settings are missing.
// Other environments only get the list back for warning.
func (c *Config) CheckRequired() ([]string, error) {
	missing := c.ValidateRequired()
	if len(missing) > 0 && c.IsProduction() {
		return missing, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return missing, nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
