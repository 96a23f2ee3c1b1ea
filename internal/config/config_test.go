package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:5000", cfg.ListenAddress())
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port too low", func(c *Config) { c.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "port"},
		{"turn timeout", func(c *Config) { c.TurnTimeout = 0 }, "turn timeout"},
		{"request bytes", func(c *Config) { c.MaxRequestBytes = 0 }, "max request bytes"},
		{"tool timeout", func(c *Config) { c.ToolHTTPTimeout = -time.Second }, "tool HTTP timeout"},
		{"tool bytes", func(c *Config) { c.ToolMaxResponseBytes = 0 }, "tool max response bytes"},
		{"negative rpm", func(c *Config) { c.ModelRequestsPerMinute = -1 }, "requests per minute"},
		{"capacity", func(c *Config) { c.SessionCapacity = 0 }, "session capacity"},
		{"redis without url", func(c *Config) { c.SessionBackend = SessionBackendRedis }, "redis URL"},
		{"unknown backend", func(c *Config) { c.SessionBackend = "etcd" }, "unknown session backend"},
		{"ttl", func(c *Config) { c.SessionTTL = 0 }, "session TTL"},
		{"watch without file", func(c *Config) { c.WatchAgentsFile = true }, "agents file"},
		{"tracing without endpoint", func(c *Config) { c.TracingEnabled = true }, "tracing endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRedisBackend(t *testing.T) {
	cfg := Default()
	cfg.SessionBackend = SessionBackendRedis
	cfg.RedisURL = "redis://localhost:6379/0"
	cfg.SessionCapacity = 0
	assert.NoError(t, cfg.Validate())
}
