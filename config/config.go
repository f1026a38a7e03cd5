// Package config loads the ticketagent configuration.
//
// Configuration is a single YAML file named by the --config flag or the
// TICKETAGENT_CONFIG environment variable. Values missing from the file keep
// the defaults from Default. The only environment override is OPENAI_API_KEY,
// which fills an empty llm.api_key.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "TICKETAGENT_CONFIG"
	EnvAPIKey     = "OPENAI_API_KEY"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
)

type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// CatalogPath points at a YAML or JSON catalog. Empty uses the embedded catalog.
	CatalogPath string `yaml:"catalog_path"`

	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
}

type LLMConfig struct {
	APIKey  string `yaml:"api_key" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Model   string `yaml:"model" validate:"required"`

	// Timeout bounds a single completion.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// RequestsPerSecond limits outgoing completions. Zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite badger"`

	// Path is the database file (sqlite) or directory (badger). An empty badger
	// path runs in memory.
	Path string `yaml:"path" validate:"required_if=Driver sqlite"`

	// SessionTTL expires idle sessions in the memory and badger stores. Zero keeps them.
	SessionTTL time.Duration `yaml:"session_ttl" validate:"gte=0"`
}

type HistoryConfig struct {
	// Window is how many recent turns are returned to callers and replayed to the chat runner.
	Window int `yaml:"window" validate:"gte=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// Default returns the base configuration a file is merged into.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		LLM: LLMConfig{
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Store: StoreConfig{
			Driver:     StoreMemory,
			SessionTTL: 24 * time.Hour,
		},
		History: HistoryConfig{
			Window: 50,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Load reads the file named by TICKETAGENT_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return nil, fmt.Errorf("%s is not set; point it at a config.yaml or pass --config", EnvConfigPath)
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document on top of Default, applies the environment
// override and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(EnvAPIKey)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
}

// SlogLevel maps LogLevel onto slog. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
