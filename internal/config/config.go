// Package config loads and validates service configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the chat service configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP/WebSocket server listens on (e.g. :9001).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// AllowedOrigins is a comma-separated list of origins permitted to open
	// WebSocket connections. "*" allows any origin.
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	// JWTSecret is the shared HMAC secret used to verify tenant session tokens.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// DatabaseURL is the Postgres DSN for the channel/message stores. When
	// empty the service runs presence and broadcast only.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// MaxMessageSize caps the size in bytes of inbound WebSocket frames.
	MaxMessageSize int64 `mapstructure:"MAX_MESSAGE_SIZE"`
	// RateLimitBurst is the number of inbound frames a connection may send
	// before throttling kicks in.
	RateLimitBurst int `mapstructure:"RATE_LIMIT_BURST"`
	// RateLimitRefillInterval is the window over which the burst refills
	// (e.g. "1s").
	RateLimitRefillInterval string `mapstructure:"RATE_LIMIT_REFILL_INTERVAL"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server and hub
	// (e.g. "10s").
	ShutdownTimeout string `mapstructure:"SHUTDOWN_TIMEOUT"`
	// LogLevel is the zerolog level name (e.g. "debug", "info").
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored; env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":9001")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MAX_MESSAGE_SIZE", 4096)
	v.SetDefault("RATE_LIMIT_BURST", 5)
	v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "1s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 5
	}

	return &cfg, nil
}

// AllowedOriginList returns the configured origins as a trimmed slice.
func (c *Config) AllowedOriginList() []string {
	if c == nil || c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RefillInterval parses RateLimitRefillInterval as a time.Duration.
// Returns 1s if unset or invalid.
func (c *Config) RefillInterval() time.Duration {
	d, err := time.ParseDuration(c.RateLimitRefillInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// ShutdownGrace parses ShutdownTimeout as a time.Duration. Returns 10s if
// unset or invalid.
func (c *Config) ShutdownGrace() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
