package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds startup configuration. Values come from an optional YAML file
// named by CONFIG_PATH, then environment variables override; the service
// reads them once at boot and never reconfigures at runtime.
type Config struct {
	ListenAddr              string
	DatabaseURL             string
	RedisAddr               string
	RateLimit               int64
	RateInterval            time.Duration
	RetryMaxAttempts        int
	RetryBackoff            time.Duration
	CacheTTL                time.Duration
	GracefulShutdownTimeout time.Duration
	JWTSecret               string
	JWTIssuer               string
}

// fileConfig is the YAML shape; durations are strings in time.ParseDuration
// syntax ("5ms", "1s"). Absent fields leave the defaults untouched.
type fileConfig struct {
	ListenAddr              string `yaml:"listen_addr"`
	DatabaseURL             string `yaml:"database_url"`
	RedisAddr               string `yaml:"redis_addr"`
	RateLimit               *int64 `yaml:"rate_limit"`
	RateInterval            string `yaml:"rate_interval"`
	RetryMaxAttempts        *int   `yaml:"retry_max_attempts"`
	RetryBackoff            string `yaml:"retry_backoff"`
	CacheTTL                string `yaml:"cache_ttl"`
	GracefulShutdownTimeout string `yaml:"graceful_shutdown_timeout"`
	JWTSecret               string `yaml:"jwt_secret"`
	JWTIssuer               string `yaml:"jwt_issuer"`
}

func defaults() Config {
	return Config{
		ListenAddr:              ":8080",
		RateLimit:               100,
		RateInterval:            time.Second,
		RetryMaxAttempts:        5,
		RetryBackoff:            5 * time.Millisecond,
		CacheTTL:                5 * time.Minute,
		GracefulShutdownTimeout: 15 * time.Second,
	}
}

// Load assembles the configuration and validates it, failing fast so that a
// misconfigured service never serves a single request.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.ListenAddr != "" {
		c.ListenAddr = fc.ListenAddr
	}
	if fc.DatabaseURL != "" {
		c.DatabaseURL = fc.DatabaseURL
	}
	if fc.RedisAddr != "" {
		c.RedisAddr = fc.RedisAddr
	}
	if fc.JWTSecret != "" {
		c.JWTSecret = fc.JWTSecret
	}
	if fc.JWTIssuer != "" {
		c.JWTIssuer = fc.JWTIssuer
	}
	if fc.RateLimit != nil {
		c.RateLimit = *fc.RateLimit
	}
	if fc.RetryMaxAttempts != nil {
		c.RetryMaxAttempts = *fc.RetryMaxAttempts
	}
	for _, d := range []struct {
		dst *time.Duration
		val string
		key string
	}{
		{&c.RateInterval, fc.RateInterval, "rate_interval"},
		{&c.RetryBackoff, fc.RetryBackoff, "retry_backoff"},
		{&c.CacheTTL, fc.CacheTTL, "cache_ttl"},
		{&c.GracefulShutdownTimeout, fc.GracefulShutdownTimeout, "graceful_shutdown_timeout"},
	} {
		if d.val == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.val)
		if err != nil {
			return fmt.Errorf("config file %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.JWTIssuer, "JWT_ISS")
	if err := setInt64(&c.RateLimit, "RATE_LIMIT"); err != nil {
		return err
	}
	if err := setInt(&c.RetryMaxAttempts, "RETRY_MAX_ATTEMPTS"); err != nil {
		return err
	}
	for _, d := range []struct {
		dst *time.Duration
		key string
	}{
		{&c.RateInterval, "RATE_INTERVAL"},
		{&c.RetryBackoff, "RETRY_BACKOFF"},
		{&c.CacheTTL, "CACHE_TTL"},
		{&c.GracefulShutdownTimeout, "GRACEFUL_SHUTDOWN_TIMEOUT"},
	} {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects configuration under which the admission pipeline would be
// undefined.
func (c Config) Validate() error {
	if c.RateLimit < 1 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.RateInterval <= 0 {
		return fmt.Errorf("RATE_INTERVAL must be positive, got %s", c.RateInterval)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("RETRY_BACKOFF must not be negative, got %s", c.RetryBackoff)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("GRACEFUL_SHUTDOWN_TIMEOUT must be positive, got %s", c.GracefulShutdownTimeout)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
