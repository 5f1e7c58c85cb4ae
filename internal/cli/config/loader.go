package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
)

// EnvPrefix prefixes every environment variable the loader reads.
// A double underscore separates nesting levels:
// LEAPCONNECT_CREDENTIALS__HOSTNAME -> credentials.hostname.
const EnvPrefix = "LEAPCONNECT_"

type (
	configKey struct{}
	loggerKey struct{}
)

var (
	k              = koanf.New(".")
	configFileUsed string
	envVarPattern  = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// flagKeys maps flag names onto config keys where the two differ.
var flagKeys = map[string]string{
	"driver":           "credentials.driver",
	"hostname":         "credentials.hostname",
	"port":             "credentials.port",
	"database":         "credentials.database",
	"username":         "credentials.username",
	"password":         "credentials.password",
	"schema":           "credentials.schema",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"redis-url":        "cache.redis_url",
	"metrics-textfile": "metrics.textfile",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > leapconnect.yaml > leapconnect.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"leapconnect.yaml", "leapconnect.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > .env file > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	poolDefaults := pool.DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]any{
		"pool.max_open_conns":              poolDefaults.MaxOpenConns,
		"pool.max_idle_conns":              poolDefaults.MaxIdleConns,
		"pool.conn_max_lifetime":           poolDefaults.ConnMaxLifetime,
		"pool.conn_max_idle_time":          poolDefaults.ConnMaxIdleTime,
		"pool.health_check_timeout":        poolDefaults.HealthCheckTimeout,
		"mapping.legacy_temporal_boolean":  false,
		"introspection.derive_nullability": false,
		"introspection.concurrency":        DefaultConcurrency,
		"cache.ttl":                        DefaultCacheTTL,
		"log.level":                        DefaultLogLevel,
		"log.format":                       DefaultLogFormat,
		"output":                           DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Profile != "" {
		p, ok := cfg.Profiles[cfg.Profile]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", cfg.Profile)
		}
		cfg.Credentials = MergeCredentials(cfg.Credentials, p.Credentials)
	}

	expandCredentialEnvVars(&cfg.Credentials)
	cfg.Credentials.Driver = strings.ToLower(cfg.Credentials.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

func expandCredentialEnvVars(c *core.Credentials) {
	c.Hostname = expandEnvVars(c.Hostname)
	c.Database = expandEnvVars(c.Database)
	c.Username = expandEnvVars(c.Username)
	c.Password = expandEnvVars(c.Password)
	c.Schema = expandEnvVars(c.Schema)
	for name, v := range c.Options {
		c.Options[name] = expandEnvVars(v)
	}
}

// MergeCredentials overlays the non-empty fields of override onto base.
func MergeCredentials(base core.Credentials, override *core.Credentials) core.Credentials {
	if override == nil {
		return base
	}

	merged := base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	maps.Copy(merged.Options, base.Options)

	if override.Driver != "" {
		merged.Driver = override.Driver
	}
	if override.Hostname != "" {
		merged.Hostname = override.Hostname
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Username != "" {
		merged.Username = override.Username
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	maps.Copy(merged.Options, override.Options)

	return merged
}
