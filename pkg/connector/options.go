package connector

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/leapstack-labs/leapconnect/internal/cache"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
)

// Option configures a Client.
type Option func(*options)

type options struct {
	logger            *slog.Logger
	pool              pool.Config
	legacyTypes       bool
	deriveNullability bool
	concurrency       int
	cache             cache.Cache
	cacheTTL          time.Duration
	registerer        prometheus.Registerer
	tracerProvider    trace.TracerProvider
}

func defaultOptions() options {
	return options{
		pool:        pool.DefaultConfig(),
		concurrency: 4,
		cacheTTL:    10 * time.Minute,
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPoolConfig bounds the connection pool.
func WithPoolConfig(cfg pool.Config) Option {
	return func(o *options) { o.pool = cfg }
}

// WithLegacyTypeMapping maps temporal and interval types to Boolean and
// INT2/INT4 to String, as earlier releases did.
func WithLegacyTypeMapping(enabled bool) Option {
	return func(o *options) { o.legacyTypes = enabled }
}

// WithDeriveNullability reports field nullability from the catalog.
func WithDeriveNullability(enabled bool) Option {
	return func(o *options) { o.deriveNullability = enabled }
}

// WithDescribeConcurrency bounds DescribeAll.
func WithDescribeConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithCache caches describe results for ttl. The client closes c on Close.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = c
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithMetrics registers Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracerProvider sets the OpenTelemetry provider; the global one is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}
