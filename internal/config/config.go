// Package config loads sqlforge settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/coregx/sqlforge/internal/audit"
	"github.com/coregx/sqlforge/internal/core"
	"github.com/coregx/sqlforge/internal/dialects"
	"github.com/coregx/sqlforge/internal/logger"
)

// Environment variables that override file values.
const (
	EnvDriver   = "SQLFORGE_DRIVER"
	EnvDSN      = "SQLFORGE_DSN"
	EnvLogLevel = "SQLFORGE_LOG_LEVEL"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds connection, logging, cache and rate limit settings.
type Config struct {
	Driver          string          `yaml:"driver"`
	DSN             string          `yaml:"dsn"`
	MaxOpenConns    int             `yaml:"max_open_conns"`
	MaxIdleConns    int             `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration   `yaml:"conn_max_lifetime"`
	LogLevel        string          `yaml:"log_level"`
	LogFormat       string          `yaml:"log_format"`
	SensitiveFields []string        `yaml:"sensitive_fields"`
	Audit           string          `yaml:"audit"`
	Cache           CacheConfig     `yaml:"cache"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RedisAddr         string        `yaml:"redis_addr"`
	RedisPassword     string        `yaml:"redis_password"`
	RedisDB           int           `yaml:"redis_db"`
	Prefix            string        `yaml:"prefix"`
	TTL               time.Duration `yaml:"ttl"`
	LocalCapacity     int           `yaml:"local_capacity"`
	InvalidateOnWrite bool          `yaml:"invalidate_on_write"`
}

// RateLimitConfig configures client-side throttling. QPS 0 disables it.
type RateLimitConfig struct {
	QPS   float64 `yaml:"qps"`
	Burst int     `yaml:"burst"`
}

// Default returns the settings used for anything a file leaves out.
func Default() *Config {
	return &Config{
		Driver:       "sqlite",
		MaxOpenConns: 25,
		MaxIdleConns: 5,
		LogLevel:     "info",
		LogFormat:    "text",
		Cache: CacheConfig{
			Prefix: "sqlforge:",
			TTL:    5 * time.Minute,
		},
		RateLimit: RateLimitConfig{Burst: 1},
	}
}

// Load reads path, applies environment overrides and validates the result.
// An empty path starts from Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvDriver); ok && v != "" {
		c.Driver = v
	}
	if v, ok := os.LookupEnv(EnvDSN); ok && v != "" {
		c.DSN = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Validate checks that the driver has a dialect and that the DSN parses for it.
func (c *Config) Validate() error {
	dialect, err := dialects.Lookup(c.Driver)
	if err != nil {
		return fmt.Errorf("%w: driver: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("%w: dsn is required", ErrInvalid)
	}

	switch dialect.Name() {
	case "mysql":
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			return fmt.Errorf("%w: mysql dsn: %v", ErrInvalid, err)
		}
	case "postgres":
		if strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://") {
			if _, err := pq.ParseURL(c.DSN); err != nil {
				return fmt.Errorf("%w: postgres dsn: %v", ErrInvalid, err)
			}
		}
	}

	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("%w: pool sizes must not be negative", ErrInvalid)
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" && c.Cache.LocalCapacity <= 0 {
		return fmt.Errorf("%w: cache needs redis_addr or local_capacity", ErrInvalid)
	}
	if _, err := audit.ParseLevel(c.Audit); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.RateLimit.QPS < 0 {
		return fmt.Errorf("%w: rate_limit.qps must not be negative", ErrInvalid)
	}
	return nil
}

// DBOptions returns the core.Open options for the pool, logging and audit
// settings. Audit events go to log.
func (c *Config) DBOptions(log logger.Logger) []core.Option {
	opts := []core.Option{core.WithLogger(log)}
	if c.MaxOpenConns > 0 {
		opts = append(opts, core.WithMaxOpenConns(c.MaxOpenConns))
	}
	if c.MaxIdleConns > 0 {
		opts = append(opts, core.WithMaxIdleConns(c.MaxIdleConns))
	}
	if c.ConnMaxLifetime > 0 {
		opts = append(opts, core.WithConnMaxLifetime(c.ConnMaxLifetime))
	}
	if len(c.SensitiveFields) > 0 {
		opts = append(opts, core.WithSensitiveFields(c.SensitiveFields...))
	}
	if level, _ := audit.ParseLevel(c.Audit); level != audit.None {
		opts = append(opts, core.WithQueryHook(audit.New(log, level).Hook()))
	}
	return opts
}
