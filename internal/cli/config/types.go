// Package config loads the leapconnect CLI configuration.
//
// Values are layered: built-in defaults, then leapconnect.yaml, then
// LEAPCONNECT_ environment variables (a .env file in the working directory
// is read first), then explicitly set command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
)

// Config holds all CLI configuration options.
type Config struct {
	Credentials   core.Credentials         `koanf:"credentials"`
	Pool          pool.Config              `koanf:"pool"`
	Mapping       MappingConfig            `koanf:"mapping"`
	Introspection IntrospectionConfig      `koanf:"introspection"`
	Cache         CacheConfig              `koanf:"cache"`
	Log           LogConfig                `koanf:"log"`
	Metrics       MetricsConfig            `koanf:"metrics"`
	Output        string                   `koanf:"output"`
	Profile       string                   `koanf:"profile"`
	Profiles      map[string]ProfileConfig `koanf:"profiles"`
}

// MappingConfig selects the type mapping table.
type MappingConfig struct {
	LegacyTemporalBoolean bool `koanf:"legacy_temporal_boolean"`
}

// IntrospectionConfig tunes schema discovery.
type IntrospectionConfig struct {
	DeriveNullability bool `koanf:"derive_nullability"`
	Concurrency       int  `koanf:"concurrency"`
}

// CacheConfig enables the Redis describe cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `koanf:"redis_url"`
	TTL      time.Duration `koanf:"ttl"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig writes Prometheus metrics to a textfile on exit when set.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// ProfileConfig holds per-profile credential overrides.
type ProfileConfig struct {
	Credentials *core.Credentials `koanf:"credentials"`
}

// Output modes.
const (
	OutputAuto  = "auto"
	OutputTable = "table"
	OutputJSON  = "json"
)

// Default configuration values.
const (
	DefaultOutput      = OutputAuto
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultConcurrency = 4
	DefaultCacheTTL    = 10 * time.Minute
)
