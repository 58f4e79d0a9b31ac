// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables (optionally backed by a
// YAML file) with sensible defaults and validates all settings on startup to
// fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRQLite   = "rqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Mapping  MappingConfig
	Logging  LoggingConfig
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 15s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers
	// are believed (comma-separated)
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys guards the /api routes when non-empty (comma-separated)
	APIKeys []string `env:"ADMIN_API_KEYS"`
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	// Driver is one of postgres, sqlite, rqlite, memory (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the connection string; required unless the driver is memory.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// MappingConfig holds object-mapping engine settings.
type MappingConfig struct {
	// CacheEnabled turns on identity caching in every manager (default: true)
	CacheEnabled bool `env:"CACHE_ENABLED" envAlt:"ENABLE_CACHING" default:"true"`

	// DistributedTx is the default for operations using the default
	// communication method (default: false)
	DistributedTx bool `env:"MSDTC_ENABLED" envAlt:"ENABLE_MSDTC" default:"false"`

	// MaxPathDepth bounds the segments of a dotted member path (default: 32)
	MaxPathDepth int `env:"MAX_PATH_DEPTH" default:"32"`

	// CacheFlushInterval clears all identity caches periodically; 0 disables (default: 0s)
	CacheFlushInterval time.Duration `env:"CACHE_FLUSH_INTERVAL" default:"0s"`

	// AcceptWarnings answers business warnings, such as a zero amount
	// invoice, with "continue" (default: false)
	AcceptWarnings bool `env:"ACCEPT_WARNINGS" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or zap (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
