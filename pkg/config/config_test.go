package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/pact-conformance/pkg/config"
)

var envKeys = []string{
	"PACT_CONFIG", "PORT", "LOG_LEVEL", "LOG_FORMAT", "BASE_URL", "EVENT_SOURCE",
	"CLIENT_ID", "CLIENT_SECRET", "JWT_VERIFY_SECRET", "TOKEN_TTL", "OUTBOUND_TIMEOUT",
	"RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "REDIS_ADDR", "SEED_V2", "SEED_V3",
	"S3_REGION", "S3_ENDPOINT", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

// TestLoad_Defaults verifies the server boots with the conformance defaults
// when nothing is configured.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "//EventHostname/EventSubpath", cfg.EventSource)
	assert.Equal(t, "test_client_id", cfg.ClientID)
	assert.Equal(t, "test_client_secret", cfg.ClientSecret)
	assert.Equal(t, "default_secret", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.OutboundTimeout)
	assert.Equal(t, "embedded", cfg.SeedV3)
	assert.True(t, cfg.RateLimited())
	assert.False(t, cfg.OTelEnabled)
	assert.Empty(t, cfg.BaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BASE_URL", "https://pact.example")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("RATE_LIMIT_RPM", "0")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("SEED_V3", "sqlite:///var/lib/pact/seed.db")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "https://pact.example", cfg.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.RateLimited())
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "sqlite:///var/lib/pact/seed.db", cfg.SeedV3)
}

func TestLoad_InvalidEnv(t *testing.T) {
	cases := map[string]string{
		"TOKEN_TTL":        "forever",
		"RATE_LIMIT_BURST": "lots",
		"OTEL_ENABLED":     "maybe",
		"PORT":             "http",
		"LOG_FORMAT":       "xml",
		"OUTBOUND_TIMEOUT": "-1s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_EnvWins(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pact.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
event_source: https://conformance.example
token_ttl: 30m
rate_limit_burst: 5
seed_v2: file:///srv/seed-v2.yaml
`), 0o600))
	t.Setenv("PACT_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Port)
	assert.Equal(t, "https://conformance.example", cfg.EventSource)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, "file:///srv/seed-v2.yaml", cfg.SeedV2)
	assert.Equal(t, "embedded", cfg.SeedV3)
}

func TestLoadFile_Errors(t *testing.T) {
	clearEnv(t)

	_, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
	_, err = config.LoadFile(path)
	assert.Error(t, err)
}
