// Package config provides configuration loading for qcreview.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete qcreview configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	User   UserConfig   `yaml:"user"`
	Serve  ServeConfig  `yaml:"serve"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the client side of the review API.
type ServerConfig struct {
	// URL is the base URL of the review API.
	URL string `yaml:"url"`
	// Timeout bounds every request.
	Timeout time.Duration `yaml:"timeout"`
}

// UserConfig identifies the acting reviewer.
type UserConfig struct {
	ID string `yaml:"id"`
}

// ServeConfig configures the API server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
	// DatabaseURL selects the PostgreSQL store; empty uses memory.
	DatabaseURL string `yaml:"database_url"`
	// NATSURL enables change events; empty disables them.
	NATSURL string `yaml:"nats_url"`
	// SeedFile is a YAML file of vehicles loaded at startup.
	SeedFile string `yaml:"seed_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs of the interactive commands.
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://127.0.0.1:6142",
			Timeout: 15 * time.Second,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1",
			Port: 6142,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be between 0 and 65535")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Load reads path, or the default path when it exists, or returns defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	def := DefaultPath()
	if def == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(def); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadFromFile(def)
}

// DefaultPath returns $XDG_CONFIG_HOME/qcreview/config.yaml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "qcreview", "config.yaml")
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one. Non-zero values of other win.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Server.URL != "" {
		c.Server.URL = other.Server.URL
	}
	if other.Server.Timeout != 0 {
		c.Server.Timeout = other.Server.Timeout
	}

	if other.User.ID != "" {
		c.User.ID = other.User.ID
	}

	if other.Serve.Addr != "" {
		c.Serve.Addr = other.Serve.Addr
	}
	if other.Serve.Port != 0 {
		c.Serve.Port = other.Serve.Port
	}
	if other.Serve.DatabaseURL != "" {
		c.Serve.DatabaseURL = other.Serve.DatabaseURL
	}
	if other.Serve.NATSURL != "" {
		c.Serve.NATSURL = other.Serve.NATSURL
	}
	if other.Serve.SeedFile != "" {
		c.Serve.SeedFile = other.Serve.SeedFile
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q: want debug, info, warn or error", s)
}
