// Package config loads server configuration from the environment, optionally
// layered over a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable pointing at a YAML config file.
const FileEnv = "PACT_CONFIG"

// Config holds server configuration.
type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// BaseURL, when set, prefixes Link header targets instead of the request host.
	BaseURL     string `yaml:"base_url"`
	EventSource string `yaml:"event_source"`

	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	JWTSecret    string        `yaml:"jwt_verify_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`

	OutboundTimeout time.Duration `yaml:"outbound_timeout"`

	RateLimitRPM   int    `yaml:"rate_limit_rpm"`
	RateLimitBurst int    `yaml:"rate_limit_burst"`
	RedisAddr      string `yaml:"redis_addr"`

	SeedV2     string `yaml:"seed_v2"`
	SeedV3     string `yaml:"seed_v3"`
	S3Region   string `yaml:"s3_region"`
	S3Endpoint string `yaml:"s3_endpoint"`

	OTelEnabled  bool   `yaml:"otel_enabled"`
	OTLPEndpoint string `yaml:"otel_exporter_otlp_endpoint"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:            "8080",
		LogLevel:        "INFO",
		LogFormat:       "json",
		EventSource:     "//EventHostname/EventSubpath",
		ClientID:        "test_client_id",
		ClientSecret:    "test_client_secret",
		JWTSecret:       "default_secret",
		TokenTTL:        time.Hour,
		OutboundTimeout: 10 * time.Second,
		RateLimitRPM:    600,
		RateLimitBurst:  50,
		SeedV2:          "embedded",
		SeedV3:          "embedded",
		S3Region:        "us-east-1",
		OTLPEndpoint:    "localhost:4317",
	}
}

// Load reads the file named by PACT_CONFIG, if any, then applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile overlays the YAML file at path on the defaults and applies
// environment overrides. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("BASE_URL", &c.BaseURL)
	str("EVENT_SOURCE", &c.EventSource)
	str("CLIENT_ID", &c.ClientID)
	str("CLIENT_SECRET", &c.ClientSecret)
	str("JWT_VERIFY_SECRET", &c.JWTSecret)
	str("REDIS_ADDR", &c.RedisAddr)
	str("SEED_V2", &c.SeedV2)
	str("SEED_V3", &c.SeedV3)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)

	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur("TOKEN_TTL", &c.TokenTTL)
	dur("OUTBOUND_TIMEOUT", &c.OutboundTimeout)
	num("RATE_LIMIT_RPM", &c.RateLimitRPM)
	num("RATE_LIMIT_BURST", &c.RateLimitBurst)

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OTEL_ENABLED: %w", err))
		} else {
			c.OTelEnabled = b
		}
	}
	return errors.Join(errs...)
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.OutboundTimeout <= 0 {
		errs = append(errs, errors.New("outbound_timeout must be positive"))
	}
	if c.RateLimitRPM < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be json or text", c.LogFormat))
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		errs = append(errs, errors.New("client credentials must not be empty"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean INFO.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RateLimited reports whether inbound rate limiting is on.
func (c *Config) RateLimited() bool {
	return c.RateLimitRPM > 0
}
