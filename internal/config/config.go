// Package config loads service configuration from environment variables.
// Every setting has a default, and Validate reports all problems at once so
// a misconfigured deployment fails on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Convert   ConvertConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	Retention RetentionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig holds artifact database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps artifacts in memory.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the number of connections kept open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes connections idle this long (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ConvertConfig holds conversion limits and default options.
type ConvertConfig struct {
	// MaxInputSize is the largest accepted document in bytes (default: 32MB)
	MaxInputSize int64 `env:"CONVERT_MAX_INPUT_SIZE" default:"33554432"`

	// MaxConcurrent is the number of conversions allowed to run at once (default: 8)
	MaxConcurrent int `env:"CONVERT_MAX_CONCURRENT" default:"8"`

	// MaxWaitTime is how long a request waits for a free slot (default: 10s)
	MaxWaitTime time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single conversion (default: 2m)
	Timeout time.Duration `env:"CONVERT_TIMEOUT" default:"2m"`

	// RootElement overrides the per-operation default root element name
	RootElement string `env:"CONVERT_ROOT_ELEMENT"`

	// RecordElement names one row in XML (default: record)
	RecordElement string `env:"CONVERT_RECORD_ELEMENT" default:"record"`

	// Separator joins nested keys into CSV column names (default: _)
	Separator string `env:"CONVERT_SEPARATOR" default:"_"`

	// Indent is the number of spaces per nesting level, -1 for compact (default: 2)
	Indent int `env:"CONVERT_INDENT" default:"2"`

	// SortKeys orders object keys in JSON and YAML output (default: false)
	SortKeys bool `env:"CONVERT_SORT_KEYS" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the general limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// ConvertLimit is requests per minute for convert and validate (default: 30)
	ConvertLimit int `env:"RATE_LIMIT_CONVERT" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enforces X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics and records conversion metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// RetentionConfig holds artifact retention settings.
type RetentionConfig struct {
	// MaxAge is how long artifacts are kept (default: 24h)
	MaxAge time.Duration `env:"RETENTION_MAX_AGE" default:"24h"`

	// Interval is how often expired artifacts are purged (default: 1h)
	Interval time.Duration `env:"RETENTION_INTERVAL" default:"1h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// UsesDatabase reports whether artifacts go to PostgreSQL.
func (c *DatabaseConfig) UsesDatabase() bool {
	return c.URL != ""
}
