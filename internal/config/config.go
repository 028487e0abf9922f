// Package config loads server settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/sakif/codebin/internal/highlight"
)

// Config is everything cmd/server needs to start.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"CODEBIN_DB_PATH" envDefault:"data/codebin.db"`

	// APIURL is where the pages send their API requests. Empty means this
	// same server on localhost.
	APIURL string `env:"CODEBIN_API_URL"`
	// PublicOrigin is the origin share links are built from. Empty means the
	// origin of the incoming request.
	PublicOrigin string `env:"CODEBIN_PUBLIC_ORIGIN"`

	// SessionSecret signs visitor cookies. Empty disables them.
	SessionSecret string   `env:"CODEBIN_SESSION_SECRET"`
	CORSOrigins   []string `env:"CODEBIN_CORS_ORIGINS" envSeparator:","`

	RateLimitRPS   float64 `env:"CODEBIN_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"CODEBIN_RATE_LIMIT_BURST" envDefault:"10"`

	// CacheSizePow2 is log2 of the snippet cache budget in bytes (24 = 16 MiB).
	// Zero disables the cache.
	CacheSizePow2 int `env:"CODEBIN_CACHE_SIZE_POW2" envDefault:"24"`

	// HighlightStyle names a chroma style. Empty means highlight.DefaultStyle.
	HighlightStyle string `env:"CODEBIN_HIGHLIGHT_STYLE"`
	LogLevel       string `env:"CODEBIN_LOG_LEVEL" envDefault:"info"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.PublicOrigin = strings.TrimRight(cfg.PublicOrigin, "/")
	if cfg.HighlightStyle = strings.TrimSpace(cfg.HighlightStyle); cfg.HighlightStyle == "" {
		cfg.HighlightStyle = highlight.DefaultStyle
	}

	origins := cfg.CORSOrigins[:0]
	for _, o := range cfg.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSOrigins = origins

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every bad setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("CODEBIN_DB_PATH must not be empty"))
	}
	if err := checkOrigin("CODEBIN_API_URL", c.APIURL); err != nil {
		errs = append(errs, err)
	}
	if c.PublicOrigin != "" {
		if err := checkOrigin("CODEBIN_PUBLIC_ORIGIN", c.PublicOrigin); err != nil {
			errs = append(errs, err)
		}
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("CODEBIN_SESSION_SECRET must be at least 16 characters"))
	}
	if c.RateLimitRPS <= 0 {
		errs = append(errs, errors.New("CODEBIN_RATE_LIMIT_RPS must be positive"))
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("CODEBIN_RATE_LIMIT_BURST must be at least 1"))
	}
	if c.CacheSizePow2 != 0 && (c.CacheSizePow2 < 10 || c.CacheSizePow2 > 32) {
		errs = append(errs, fmt.Errorf("CODEBIN_CACHE_SIZE_POW2 %d must be 0 or between 10 and 32", c.CacheSizePow2))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("CODEBIN_LOG_LEVEL %q is not a log level", s)
	}
	return l, nil
}

func checkOrigin(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q must be an http(s) URL", name, raw)
	}
	return nil
}
