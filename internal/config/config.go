// Package config loads quill settings from ~/.quill/config.yaml and QUILL_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the effective quill configuration.
type Config struct {
	// APIURL is the base of the blog API, e.g. http://localhost:8000/api.
	APIURL string `yaml:"api_url" mapstructure:"api_url" validate:"required,url"`

	// WebURL is where posts can be opened in a browser. Empty disables "open in browser".
	WebURL string `yaml:"web_url" mapstructure:"web_url" validate:"omitempty,url"`

	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Relay   RelayConfig   `yaml:"relay" mapstructure:"relay"`
	Toast   ToastConfig   `yaml:"toast" mapstructure:"toast"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StorageConfig selects where the session token and profile are kept.
type StorageConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend" validate:"oneof=file sqlite redis memory"`
	Path        string `yaml:"path" mapstructure:"path"`
	RedisAddr   string `yaml:"redis_addr" mapstructure:"redis_addr" validate:"required_if=Backend redis,omitempty,hostname_port"`
	RedisDB     int    `yaml:"redis_db" mapstructure:"redis_db" validate:"min=0"`
	RedisPrefix string `yaml:"redis_prefix" mapstructure:"redis_prefix"`
}

// RelayConfig configures the cookie relay server.
type RelayConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	CookieName   string        `yaml:"cookie_name" mapstructure:"cookie_name" validate:"required"`
	CookieMaxAge time.Duration `yaml:"cookie_max_age" mapstructure:"cookie_max_age" validate:"gt=0"`
	// Production marks the cookie Secure.
	Production bool `yaml:"production" mapstructure:"production"`
}

// ToastConfig controls notification display.
type ToastConfig struct {
	Duration time.Duration `yaml:"duration" mapstructure:"duration" validate:"gt=0"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
	File   string `yaml:"file" mapstructure:"file"`
}

// Defaults.
const (
	DefaultAPIURL       = "http://localhost:8000/api"
	DefaultRelayAddr    = "127.0.0.1:8787"
	DefaultCookieName   = "token"
	DefaultCookieMaxAge = time.Hour
	DefaultToastTimeout = 3 * time.Second
)

// Dir returns the quill state directory: $QUILL_HOME or ~/.quill.
func Dir() (string, error) {
	if dir := os.Getenv("QUILL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".quill"), nil
}

// SetDefaults fills derived values that depend on other fields.
func (c *Config) SetDefaults(dir string) {
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case "file":
			c.Storage.Path = filepath.Join(dir, "session.json")
		case "sqlite":
			c.Storage.Path = filepath.Join(dir, "session.db")
		}
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, "quill.log")
	}
}
