package config

import (
	"fmt"
	"time"
)

// Session index backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds all configuration for the server
type Config struct {
	// BindAddress is the interface the API server listens on
	BindAddress string

	// Port is the port the API server listens on
	Port int

	// FrontendDir is served at "/". Empty means the embedded page.
	FrontendDir string

	// AgentsFile is an optional YAML file overriding and extending the built-in agents
	AgentsFile string

	// WatchAgentsFile rebuilds the agent catalog when AgentsFile changes
	WatchAgentsFile bool

	// DataSpecFile is the OpenAPI document backing DataGeneratorAgent's data toolset
	DataSpecFile string

	// DefaultModel replaces the model of agents that do not set one in AgentsFile
	DefaultModel string

	// ModelRequestsPerMinute caps model calls per model identifier. Zero disables.
	ModelRequestsPerMinute int

	// TurnTimeout bounds a single agent turn
	TurnTimeout time.Duration

	// MaxRequestBytes caps the size of API request bodies
	MaxRequestBytes int64

	// ToolHTTPTimeout bounds each OpenAPI tool request
	ToolHTTPTimeout time.Duration

	// ToolMaxResponseBytes truncates OpenAPI tool response bodies
	ToolMaxResponseBytes int64

	// SessionBackend is "memory" or "redis"
	SessionBackend string

	// SessionCapacity is the maximum number of sessions kept in memory
	SessionCapacity int

	// SessionTTL expires sessions after this much idle time
	SessionTTL time.Duration

	// RedisURL is used when SessionBackend is "redis"
	RedisURL string

	// AuditLogPath enables the JSONL audit log when set
	AuditLogPath string

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string

	// TracingTLSInsecure skips TLS verification of the trace endpoint
	TracingTLSInsecure bool
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		BindAddress:          "0.0.0.0",
		Port:                 5000,
		DefaultModel:         "",
		TurnTimeout:          2 * time.Minute,
		MaxRequestBytes:      1 << 20,
		ToolHTTPTimeout:      30 * time.Second,
		ToolMaxResponseBytes: 64 << 10,
		SessionBackend:       SessionBackendMemory,
		SessionCapacity:      10000,
		SessionTTL:           time.Hour,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return NewConfigError("port must be between 1 and 65535")
	}

	if c.TurnTimeout <= 0 {
		return NewConfigError("turn timeout must be positive")
	}

	if c.MaxRequestBytes < 1 {
		return NewConfigError("max request bytes must be at least 1")
	}

	if c.ToolHTTPTimeout <= 0 {
		return NewConfigError("tool HTTP timeout must be positive")
	}

	if c.ToolMaxResponseBytes < 1 {
		return NewConfigError("tool max response bytes must be at least 1")
	}

	if c.ModelRequestsPerMinute < 0 {
		return NewConfigError("model requests per minute must not be negative")
	}

	switch c.SessionBackend {
	case SessionBackendMemory:
		if c.SessionCapacity < 1 {
			return NewConfigError("session capacity must be at least 1")
		}
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return NewConfigError("redis URL must be set when the session backend is redis")
		}
	default:
		return NewConfigError(fmt.Sprintf("unknown session backend %q (expected %q or %q)",
			c.SessionBackend, SessionBackendMemory, SessionBackendRedis))
	}

	if c.SessionTTL <= 0 {
		return NewConfigError("session TTL must be positive")
	}

	if c.WatchAgentsFile && c.AgentsFile == "" {
		return NewConfigError("watching the agents file requires an agents file")
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("tracing endpoint must be set when tracing is enabled")
	}

	return nil
}

// ListenAddress returns host:port for the API server.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
