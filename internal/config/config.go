// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

// Package config loads RecycleHub settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/logging"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Notifier drivers.
const (
	NotifyDriverLog     = "log"
	NotifyDriverWebhook = "webhook"
)

// Config is the complete RecycleHub configuration.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Notify    NotifyConfig    `koanf:"notify"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	CORS      CORSConfig      `koanf:"cors"`
	Client    ClientConfig    `koanf:"client"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// AuthConfig configures tokens and one-time codes.
type AuthConfig struct {
	JWTSecret     string        `koanf:"jwt_secret"`
	Issuer        string        `koanf:"issuer"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	CodeTTL       time.Duration `koanf:"code_ttl"`
	MaxLiveCodes  int           `koanf:"max_live_codes"`
	NotifyTimeout time.Duration `koanf:"notify_timeout"`
}

// NotifyConfig selects how codes reach users.
type NotifyConfig struct {
	Driver     string `koanf:"driver"`
	WebhookURL string `koanf:"webhook_url"`
	MaxRetries int    `koanf:"max_retries"`

	// BlockPrivateNetworks refuses webhook deliveries to private,
	// loopback and metadata addresses.
	BlockPrivateNetworks bool `koanf:"block_private_networks"`
}

// RateLimitConfig bounds requests per client IP. A zero rate disables
// limiting.
type RateLimitConfig struct {
	Rate  float64 `koanf:"rate"`
	Burst int     `koanf:"burst"`
}

// CORSConfig lists allowed browser origins. Entries may be glob patterns
// such as "https://*.recyclehub.app".
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// ClientConfig gates outdated mobile clients.
type ClientConfig struct {
	MinVersion string `koanf:"min_version"`
}

// defaults returns the lowest-precedence layer. Durations are strings so
// that `config show` prints them readably.
func defaults() map[string]any {
	return map[string]any{
		"http.addr":                     ":8080",
		"metrics.addr":                  "127.0.0.1:9100",
		"log.format":                    "json",
		"log.level":                     "info",
		"store.driver":                  StoreDriverPostgres,
		"database.url":                  "",
		"database.connect_timeout":      "30s",
		"auth.jwt_secret":               "",
		"auth.issuer":                   auth.DefaultTokenIssuer,
		"auth.token_ttl":                "48h",
		"auth.code_ttl":                 "10m",
		"auth.max_live_codes":           0,
		"auth.notify_timeout":           "5s",
		"notify.driver":                 NotifyDriverLog,
		"notify.webhook_url":            "",
		"notify.max_retries":            3,
		"notify.block_private_networks": false,
		"ratelimit.rate":                1.0,
		"ratelimit.burst":               10,
		"cors.allowed_origins":          []string{},
		"client.min_version":            "",
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log.level %q is not a known level", c.Log.Level)
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return invalid("database.url", "database.url (or DATABASE_URL) is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return invalid("store.driver", "store.driver must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if len(c.Auth.JWTSecret) < auth.MinSecretLength {
		return invalid("auth.jwt_secret", "auth.jwt_secret (or JWT_SECRET) must be at least %d bytes", auth.MinSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid("auth.token_ttl", "auth.token_ttl must be positive")
	}
	if c.Auth.CodeTTL <= 0 {
		return invalid("auth.code_ttl", "auth.code_ttl must be positive")
	}
	if c.Auth.MaxLiveCodes < 0 {
		return invalid("auth.max_live_codes", "auth.max_live_codes cannot be negative")
	}
	if c.Auth.NotifyTimeout <= 0 {
		return invalid("auth.notify_timeout", "auth.notify_timeout must be positive")
	}

	switch c.Notify.Driver {
	case NotifyDriverLog:
	case NotifyDriverWebhook:
		if c.Notify.WebhookURL == "" {
			return invalid("notify.webhook_url", "notify.webhook_url is required for the webhook notifier")
		}
	default:
		return invalid("notify.driver", "notify.driver must be %q or %q, got %q", NotifyDriverLog, NotifyDriverWebhook, c.Notify.Driver)
	}
	if c.Notify.MaxRetries < 0 {
		return invalid("notify.max_retries", "notify.max_retries cannot be negative")
	}

	if c.RateLimit.Rate < 0 {
		return invalid("ratelimit.rate", "ratelimit.rate cannot be negative")
	}
	if c.RateLimit.Rate > 0 && c.RateLimit.Burst < 1 {
		return invalid("ratelimit.burst", "ratelimit.burst must be at least 1 when rate limiting is enabled")
	}

	if c.Client.MinVersion != "" {
		if _, err := semver.NewVersion(c.Client.MinVersion); err != nil {
			return invalid("client.min_version", "client.min_version %q is not a semantic version", c.Client.MinVersion)
		}
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}
