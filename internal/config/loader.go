package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader wraps a viper instance configured for quill.
type Loader struct {
	v   *viper.Viper
	dir string
}

// NewLoader prepares viper with defaults, the config file and QUILL_* env
// overrides. configFile may be empty, in which case <dir>/config.yaml is used
// when it exists.
func NewLoader(configFile string) (*Loader, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(dir); found != "" {
		v.SetConfigFile(found)
	} else {
		// No file: ReadInConfig reports ConfigFileNotFoundError, handled in Load.
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// QUILL_STORAGE_BACKEND overrides storage.backend.
	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindNestedEnvKeys(v)

	return &Loader{v: v, dir: dir}, nil
}

// Viper exposes the underlying instance so CLI flags can be bound to keys.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Dir is the state directory the loader resolved.
func (l *Loader) Dir() string { return l.dir }

// ConfigFileUsed returns the path of the file that was read, or "".
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// Load reads the config file if any, unmarshals, applies derived defaults
// and validates.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.SetDefaults(l.dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("web_url", "")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "quill:")
	v.SetDefault("relay.enabled", false)
	v.SetDefault("relay.addr", DefaultRelayAddr)
	v.SetDefault("relay.cookie_name", DefaultCookieName)
	v.SetDefault("relay.cookie_max_age", DefaultCookieMaxAge)
	v.SetDefault("relay.production", false)
	v.SetDefault("toast.duration", DefaultToastTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// bindNestedEnvKeys makes nested keys visible to Unmarshal when only set
// through the environment.
func bindNestedEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"api_url", "web_url",
		"storage.backend", "storage.path", "storage.redis_addr", "storage.redis_db", "storage.redis_prefix",
		"relay.enabled", "relay.addr", "relay.cookie_name", "relay.cookie_max_age", "relay.production",
		"toast.duration",
		"log.level", "log.format", "log.file",
	} {
		_ = v.BindEnv(key)
	}
}

// findConfigFile looks for config.yaml or config.yml in dir.
func findConfigFile(dir string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, "config"+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
