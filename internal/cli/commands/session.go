// Package commands implements the leapconnect subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapconnect/internal/cache"
	"github.com/leapstack-labs/leapconnect/internal/cli/config"
	"github.com/leapstack-labs/leapconnect/internal/metrics"
	"github.com/leapstack-labs/leapconnect/pkg/connector"
)

// session is the per-command connector state built from the loaded config.
type session struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *connector.Client
	registry *prometheus.Registry
}

// newSession opens a connector client for cmd. Close must be called.
func newSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	cfg, ok := config.FromContext(ctx)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	logger := config.GetLogger(ctx)

	s := &session{Cfg: cfg, Logger: logger}
	opts := []connector.Option{
		connector.WithLogger(logger),
		connector.WithPoolConfig(cfg.Pool),
		connector.WithLegacyTypeMapping(cfg.Mapping.LegacyTemporalBoolean),
		connector.WithDeriveNullability(cfg.Introspection.DeriveNullability),
		connector.WithDescribeConcurrency(cfg.Introspection.Concurrency),
	}
	var rc *cache.Redis
	if cfg.Cache.RedisURL != "" {
		var err error
		rc, err = cache.NewRedis(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure cache: %w", err)
		}
		opts = append(opts, connector.WithCache(rc, cfg.Cache.TTL))
	}
	if cfg.Metrics.Textfile != "" {
		s.registry = prometheus.NewRegistry()
		opts = append(opts, connector.WithMetrics(s.registry))
	}

	client, err := connector.Open(ctx, cfg.Credentials, opts...)
	if err != nil {
		if rc != nil {
			_ = rc.Close()
		}
		return nil, err
	}
	s.Client = client
	return s, nil
}

// Close releases the client and flushes metrics to the configured textfile.
func (s *session) Close() error {
	err := s.Client.Close()
	if s.registry != nil {
		if werr := metrics.WriteTextfile(s.Cfg.Metrics.Textfile, s.registry); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	return err
}

// withSession runs fn against a fresh session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(*session) error) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
