// Package config provides configuration management for Eve.
// It loads settings from environment variables with the EVE_ prefix,
// optionally overlaid by a YAML config file, and provides sensible
// defaults for all options.
//
// A few user-facing settings (default engagement level, model override)
// can also be persisted to the settings table in the database;
// LoadFromStore reads those with the database taking precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tailored-ai/eve/internal/storage"
)

// Config holds all configuration settings for the Eve server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Agent     AgentConfig     `yaml:"agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
	Port int    `yaml:"port"` // Server port (default: 8484)

	// APIToken authenticates API callers via bearer token.
	// Empty token in development mode disables auth.
	APIToken string `yaml:"api_token"`

	// SecurityMode is "development" or "production" (default: development).
	SecurityMode string `yaml:"security_mode"`
}

// DatabaseConfig contains storage backend configuration.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres" (default: sqlite)
	DSN    string `yaml:"dsn"`    // Connection string (default: ./data/eve.db)
}

// LLMConfig contains text-generation backend configuration.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`        // OpenAI-compatible API base URL
	APIKey         string `yaml:"api_key"`         // Bearer token for the API
	Model          string `yaml:"model"`           // Model identifier (default: openai/gpt-4o-mini)
	TimeoutSeconds int    `yaml:"timeout_seconds"` // Per-request timeout (default: 60)
}

// AgentConfig contains agentic pipeline tuning.
type AgentConfig struct {
	// DefaultEngagementLevel is used for users with no stored tier (default: 2).
	DefaultEngagementLevel int `yaml:"default_engagement_level"`

	// ReflectionThreshold is the overall score below which a draft response
	// is revised (default: 70).
	ReflectionThreshold int `yaml:"reflection_threshold"`

	// MemoryContextLimit is how many memories are injected per turn (default: 15).
	MemoryContextLimit int `yaml:"memory_context_limit"`
}

// RateLimitConfig contains per-key request rate limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // Sustained rate (default: 60)
	Burst             int `yaml:"burst"`               // Burst allowance (default: 10)
	TTLSeconds        int `yaml:"ttl_seconds"`         // Idle key eviction window (default: 600)
}

// Load builds a Config from environment variables and defaults.
func Load() (*Config, error) {
	return buildBaseConfig(), nil
}

// LoadFile loads configuration from a YAML file layered over environment
// variables and defaults: env/defaults first, then non-zero file values win.
func LoadFile(path string) (*Config, error) {
	cfg := buildBaseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromStore loads configuration from environment variables and then
// overlays settings persisted in the database. The database value takes
// precedence for the keys it holds.
func LoadFromStore(ctx context.Context, store storage.SettingsStore) (*Config, error) {
	if store == nil {
		return nil, errors.New("config: settings store is required")
	}

	cfg := buildBaseConfig()

	if model, err := store.GetSetting(ctx, "llm_model"); err == nil && model != "" {
		cfg.LLM.Model = model
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("config: failed to load llm_model from database: %w", err)
	}

	if level, err := store.GetSetting(ctx, "default_engagement_level"); err == nil && level != "" {
		if parsed, perr := strconv.Atoi(level); perr == nil {
			cfg.Agent.DefaultEngagementLevel = parsed
		}
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("config: failed to load default_engagement_level from database: %w", err)
	}

	return cfg, nil
}

// Save persists the user-facing settings to the database so they survive
// restarts.
func (c *Config) Save(ctx context.Context, store storage.SettingsStore) error {
	if store == nil {
		return errors.New("config: settings store is required")
	}

	if err := store.SetSetting(ctx, "llm_model", c.LLM.Model); err != nil {
		return fmt.Errorf("config: failed to save llm_model: %w", err)
	}
	if err := store.SetSetting(ctx, "default_engagement_level", strconv.Itoa(c.Agent.DefaultEngagementLevel)); err != nil {
		return fmt.Errorf("config: failed to save default_engagement_level: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development security mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.SecurityMode != "production"
}

// buildBaseConfig constructs a Config with values from environment
// variables and defaults.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("EVE_HOST", "127.0.0.1"),
			Port:         getEnvInt("EVE_PORT", 8484),
			APIToken:     getEnv("EVE_API_TOKEN", ""),
			SecurityMode: getEnv("EVE_SECURITY_MODE", "development"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("EVE_DB_DRIVER", "sqlite"),
			DSN:    getEnv("EVE_DB_DSN", "./data/eve.db"),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("EVE_LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:         getEnv("EVE_LLM_API_KEY", ""),
			Model:          getEnv("EVE_LLM_MODEL", "openai/gpt-4o-mini"),
			TimeoutSeconds: getEnvInt("EVE_LLM_TIMEOUT_SECONDS", 60),
		},
		Agent: AgentConfig{
			DefaultEngagementLevel: getEnvInt("EVE_DEFAULT_ENGAGEMENT_LEVEL", 2),
			ReflectionThreshold:    getEnvInt("EVE_REFLECTION_THRESHOLD", 70),
			MemoryContextLimit:     getEnvInt("EVE_MEMORY_CONTEXT_LIMIT", 15),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("EVE_RATE_LIMIT_RPM", 60),
			Burst:             getEnvInt("EVE_RATE_LIMIT_BURST", 10),
			TTLSeconds:        getEnvInt("EVE_RATE_LIMIT_TTL_SECONDS", 600),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
