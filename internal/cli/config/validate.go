package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Credentials.Driver == "" {
		return fmt.Errorf("credentials.driver is required")
	}
	if !adapter.IsRegistered(c.Credentials.Driver) {
		return &adapter.UnknownAdapterError{Type: c.Credentials.Driver, Available: adapter.ListAdapters()}
	}

	switch c.Output {
	case OutputAuto, OutputTable, OutputJSON:
	default:
		return fmt.Errorf("output must be one of auto, table, json; got %q", c.Output)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json; got %q", c.Log.Format)
	}

	if c.Pool.MaxOpenConns < 0 || c.Pool.MaxIdleConns < 0 {
		return fmt.Errorf("pool connection limits must not be negative")
	}
	if c.Introspection.Concurrency < 0 {
		return fmt.Errorf("introspection.concurrency must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}

// NewLogger builds the logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
