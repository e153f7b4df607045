// Package config loads the service configuration from defaults, an optional
// YAML file and LIBRARIUM_-prefixed environment variables, in that order of
// precedence (lowest to highest).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/librarium/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

const envPrefix = "LIBRARIUM_"

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Data        DataConfig        `koanf:"data"`
	Auth        AuthConfig        `koanf:"auth"`
	OpenLibrary OpenLibraryConfig `koanf:"openlibrary"`
	RateLimit   RateLimitConfig   `koanf:"ratelimit"`
	CORS        CORSConfig        `koanf:"cors"`
	Log         LogConfig         `koanf:"log"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	MaxBodyBytes int64         `koanf:"max_body_bytes"`
}

type DataConfig struct {
	// Dir holds the credential store document, catalog snapshots and
	// session record files.
	Dir string `koanf:"dir"`
}

type AuthConfig struct {
	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`
	SessionTTL  time.Duration `koanf:"session_ttl"`
}

type OpenLibraryConfig struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"base_url"`
	UserAgent  string        `koanf:"user_agent"`
	RPS        int           `koanf:"rps"`
	MaxRetries int           `koanf:"max_retries"`
	Timeout    time.Duration `koanf:"timeout"`
}

type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 4 << 20, // covers fit comfortably
		},
		Data: DataConfig{
			Dir: "data",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			SessionTTL: 24 * time.Hour,
		},
		OpenLibrary: OpenLibraryConfig{
			Enabled:    true,
			BaseURL:    "https://openlibrary.org",
			UserAgent:  "librarium/1.0",
			RPS:        1,
			MaxRetries: 2,
			Timeout:    15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the effective configuration. A missing config file is fine;
// an unreadable or malformed one is not.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envTransform maps LIBRARIUM_<SECTION>_<KEY> to <section>.<key>. Only the
// first underscore separates the section, so LIBRARIUM_AUTH_TOKEN_SECRET
// becomes auth.token_secret.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return errors.New("auth.token_secret is required (set LIBRARIUM_AUTH_TOKEN_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	if c.Data.Dir == "" {
		return errors.New("data.dir is required")
	}
	return nil
}
