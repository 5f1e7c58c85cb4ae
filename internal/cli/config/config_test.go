package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leapconnect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func credentialFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("driver", "", "driver")
	flags.String("hostname", "", "hostname")
	flags.Int("port", 0, "port")
	flags.String("database", "", "database")
	flags.String("log-level", "", "log level")
	flags.StringP("output", "o", "", "output")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(writeConfig(t, "credentials:\n  driver: SQLite\n  database: app.db\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Credentials.Driver)
	assert.Equal(t, "app.db", cfg.Credentials.Database)
	assert.Equal(t, 4, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Pool.ConnMaxLifetime)
	assert.Equal(t, DefaultConcurrency, cfg.Introspection.Concurrency)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, OutputAuto, cfg.Output)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NotEmpty(t, GetConfigFileUsed())
}

func TestLoadConfig_FileValues(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(writeConfig(t, `credentials:
  driver: postgres
  hostname: db.internal
  port: 6432
  database: sales
  options:
    sslmode: require
pool:
  max_open_conns: 10
  conn_max_lifetime: 1h
mapping:
  legacy_temporal_boolean: true
cache:
  redis_url: redis://localhost:6379/0
  ttl: 90s
output: json
`), nil)
	require.NoError(t, err)

	assert.Equal(t, 6432, cfg.Credentials.Port)
	assert.Equal(t, map[string]string{"sslmode": "require"}, cfg.Credentials.Options)
	assert.Equal(t, 10, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 2, cfg.Pool.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.Pool.ConnMaxLifetime)
	assert.True(t, cfg.Mapping.LegacyTemporalBoolean)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, OutputJSON, cfg.Output)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfgPath := writeConfig(t, "credentials:\n  driver: postgres\n  hostname: from_file\n")
	t.Setenv("LEAPCONNECT_CREDENTIALS__HOSTNAME", "from_env")

	flags := credentialFlags()
	require.NoError(t, flags.Set("hostname", "from_flag"))
	require.NoError(t, flags.Set("port", "5433"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Credentials.Hostname, "flag value should override config file and env var")
	assert.Equal(t, 5433, cfg.Credentials.Port)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfgPath := writeConfig(t, "credentials:\n  driver: postgres\n  hostname: from_file\n")
	t.Setenv("LEAPCONNECT_CREDENTIALS__HOSTNAME", "from_env")
	t.Setenv("LEAPCONNECT_POOL__MAX_OPEN_CONNS", "12")
	t.Setenv("LEAPCONNECT_CREDENTIALS__OPTIONS__SSLMODE", "verify-full")

	// Unset flags fall through to the env var.
	cfg, err := LoadConfig(cfgPath, credentialFlags())
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Credentials.Hostname)
	assert.Equal(t, 12, cfg.Pool.MaxOpenConns)
	assert.Equal(t, "verify-full", cfg.Credentials.Options["sslmode"])
}

func TestLoadConfig_DotEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LEAPCONNECT_CREDENTIALS__DRIVER=sqlite\nLEAPCONNECT_CREDENTIALS__DATABASE=dotenv.db\nDB_SECRET=s3cret\n"), 0600))
	t.Cleanup(func() {
		_ = os.Unsetenv("LEAPCONNECT_CREDENTIALS__DRIVER")
		_ = os.Unsetenv("LEAPCONNECT_CREDENTIALS__DATABASE")
		_ = os.Unsetenv("DB_SECRET")
	})

	cfg, err := LoadConfig(writeConfig(t, "credentials:\n  password: ${DB_SECRET}\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Credentials.Driver)
	assert.Equal(t, "dotenv.db", cfg.Credentials.Database)
	assert.Equal(t, "s3cret", cfg.Credentials.Password)
}

func TestLoadConfig_Profiles(t *testing.T) {
	content := `credentials:
  driver: postgres
  hostname: localhost
  database: dev
  options:
    sslmode: disable
profiles:
  prod:
    credentials:
      hostname: prod.internal
      database: sales
      options:
        sslmode: require
`

	t.Run("profile overrides base", func(t *testing.T) {
		ResetConfig()
		t.Chdir(t.TempDir())
		t.Setenv("LEAPCONNECT_PROFILE", "prod")

		cfg, err := LoadConfig(writeConfig(t, content), nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Credentials.Driver)
		assert.Equal(t, "prod.internal", cfg.Credentials.Hostname)
		assert.Equal(t, "sales", cfg.Credentials.Database)
		assert.Equal(t, "require", cfg.Credentials.Options["sslmode"])
	})

	t.Run("unknown profile", func(t *testing.T) {
		ResetConfig()
		t.Chdir(t.TempDir())
		t.Setenv("LEAPCONNECT_PROFILE", "staging")

		_, err := LoadConfig(writeConfig(t, content), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown profile "staging"`)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Credentials: core.Credentials{Driver: "sqlite"},
			Output:      OutputAuto,
			Log:         LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing driver", mutate: func(c *Config) { c.Credentials.Driver = "" }, errSubstr: "credentials.driver is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.Credentials.Driver = "oracle" }, errSubstr: "oracle"},
		{name: "bad output", mutate: func(c *Config) { c.Output = "markdown" }, errSubstr: "output must be one of"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, errSubstr: "invalid log.level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, errSubstr: "log.format"},
		{name: "negative pool", mutate: func(c *Config) { c.Pool.MaxOpenConns = -1 }, errSubstr: "pool"},
		{name: "negative concurrency", mutate: func(c *Config) { c.Introspection.Concurrency = -2 }, errSubstr: "concurrency"},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TTL = -time.Second }, errSubstr: "cache.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate_UnknownDriverListsAvailable(t *testing.T) {
	cfg := Config{Credentials: core.Credentials{Driver: "oracle"}, Output: OutputAuto, Log: LogConfig{Level: "info", Format: "text"}}
	err := cfg.Validate()

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Available, "postgres")
	assert.Contains(t, unknown.Available, "sqlite")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeCredentials(t *testing.T) {
	base := core.Credentials{
		Driver:   "postgres",
		Hostname: "localhost",
		Port:     5432,
		Options:  map[string]string{"sslmode": "disable", "application_name": "leapconnect"},
	}

	t.Run("nil override returns base", func(t *testing.T) {
		assert.Equal(t, base, MergeCredentials(base, nil))
	})

	t.Run("override wins and options merge", func(t *testing.T) {
		merged := MergeCredentials(base, &core.Credentials{Port: 6432, Options: map[string]string{"sslmode": "require"}})
		assert.Equal(t, "localhost", merged.Hostname)
		assert.Equal(t, 6432, merged.Port)
		assert.Equal(t, map[string]string{"sslmode": "require", "application_name": "leapconnect"}, merged.Options)
		assert.Equal(t, "disable", base.Options["sslmode"], "base options must not be mutated")
	})
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "info", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "entity", "orders")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"entity":"orders"`)

	_, err = LogConfig{Level: "chatty"}.NewLogger(&buf)
	assert.Error(t, err)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{Output: OutputJSON}
	got, ok := FromContext(WithConfig(ctx, cfg))
	require.True(t, ok)
	assert.Same(t, cfg, got)
}
