// Package config loads service settings from an optional YAML file and
// UNDANGAN_* environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings.
type Config struct {
	Port       string `yaml:"port" env:"PORT"`
	APIBaseURL string `yaml:"api_base_url" env:"API_BASE_URL"`
	// PublicURL is the externally visible origin of this service. It is the
	// page origin for blob: checks and websocket origin patterns.
	PublicURL   string `yaml:"public_url" env:"PUBLIC_URL"`
	InviteParam string `yaml:"invite_param" env:"INVITE_PARAM"`
	DefaultSlug string `yaml:"default_slug" env:"DEFAULT_SLUG"`
	PerPage     int    `yaml:"per_page" env:"PER_PAGE"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	DBPath     string        `yaml:"db_path" env:"DB_PATH"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	AssetTTL   time.Duration `yaml:"asset_ttl" env:"ASSET_TTL"`

	Timezone      string `yaml:"timezone" env:"TIMEZONE"`
	Locale        string `yaml:"locale" env:"LOCALE"`
	AudioAutoplay bool   `yaml:"audio_autoplay" env:"AUDIO_AUTOPLAY"`

	OTelEndpoint string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`
}

const envPrefix = "UNDANGAN_"

// Load reads path (if non-empty) and then applies environment overrides.
// ${VAR} references in the file are expanded before parsing.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://localhost:" + c.Port
	}
	if c.InviteParam == "" {
		c.InviteParam = "token"
	}
	if c.PerPage == 0 {
		c.PerPage = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.DBPath == "" {
		c.DBPath = "undangan.db"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 2 * time.Hour
	}
	if c.AssetTTL == 0 {
		c.AssetTTL = 7 * 24 * time.Hour
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Jakarta"
	}
	if c.Locale == "" {
		c.Locale = "id"
	}
}

// Validate checks settings that cannot be fixed by defaults. An empty
// APIBaseURL is allowed: network features are disabled instead.
func (c Config) Validate() error {
	var errs []error
	if c.PerPage <= 0 {
		errs = append(errs, fmt.Errorf("per_page must be positive, got %d", c.PerPage))
	}
	if strings.TrimSpace(c.InviteParam) == "" {
		errs = append(errs, errors.New("invite_param must not be empty"))
	}
	if c.APIBaseURL != "" {
		if u, err := url.Parse(c.APIBaseURL); err != nil || !u.IsAbs() {
			errs = append(errs, fmt.Errorf("api_base_url %q is not an absolute URL", c.APIBaseURL))
		}
	}
	if _, err := url.Parse(c.PublicURL); err != nil {
		errs = append(errs, fmt.Errorf("public_url: %w", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// PublicOrigin returns scheme://host of PublicURL.
func (c Config) PublicOrigin() string {
	u, err := url.Parse(c.PublicURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}
