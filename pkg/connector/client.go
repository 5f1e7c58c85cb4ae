// Package connector is the entry point for hosts: it wires an adapter, a
// connection pool, the type mapper, the introspector and the read and write
// runners into one Client.
package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leapstack-labs/leapconnect/internal/cache"
	"github.com/leapstack-labs/leapconnect/internal/metrics"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/introspect"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
	"github.com/leapstack-labs/leapconnect/pkg/query"
	"github.com/leapstack-labs/leapconnect/pkg/typemap"
	"github.com/leapstack-labs/leapconnect/pkg/write"
)

const instrumentationName = "github.com/leapstack-labs/leapconnect/pkg/connector"

// Client exposes the connector operations for one data source.
// It is safe for concurrent use.
type Client struct {
	adapter      adapter.Adapter
	creds        core.Credentials
	pool         *pool.Pool
	introspector *introspect.Introspector
	reader       *query.Runner
	writer       *write.Runner
	cache        cache.Cache
	concurrency  int

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// Open resolves the adapter for creds.Driver and builds a client. No
// connection is made until the first operation.
func Open(ctx context.Context, creds core.Credentials, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	a, err := adapter.NewAdapter(creds.Driver, logger)
	if err != nil {
		return nil, err
	}
	return build(ctx, a, creds, o, logger), nil
}

// New builds a client around an already resolved adapter.
func New(ctx context.Context, a adapter.Adapter, creds core.Credentials, opts ...Option) (*Client, error) {
	if a == nil {
		return nil, errors.New("adapter is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return build(ctx, a, creds, o, logger), nil
}

func build(ctx context.Context, a adapter.Adapter, creds core.Credentials, o options, logger *slog.Logger) *Client {
	logger = logger.With(slog.String("driver", a.Name()))

	d := a.Dialect()
	mapper := typemap.New()
	if o.legacyTypes {
		mapper = typemap.NewLegacy()
	}
	mapper = mapper.With(d.Types())

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	var m *metrics.Metrics
	if o.registerer != nil {
		m = metrics.New(o.registerer)
	}

	cached := o.cache != nil
	if !cached {
		o.cache = cache.Nop{}
	}

	p := pool.New(a, creds, o.pool, logger)
	schema := d.ResolveSchema(creds)

	c := &Client{
		adapter: a,
		creds:   creds,
		pool:    p,
		introspector: &introspect.Introspector{
			Pool:              p,
			Dialect:           d,
			Mapper:            mapper,
			Diagnoser:         a,
			Logger:            logger,
			Schema:            schema,
			DeriveNullability: o.deriveNullability,
			Cache:             o.cache,
			CacheTTL:          o.cacheTTL,
			Scope:             creds.Fingerprint(),
		},
		reader: &query.Runner{
			Pool:      p,
			Builder:   &query.Builder{Dialect: d, Schema: schema},
			Diagnoser: a,
			Logger:    logger,
		},
		writer: &write.Runner{
			Pool:     p,
			Builder:  &write.Builder{Dialect: d, Schema: schema},
			Executor: a,
			Logger:   logger,
		},
		cache:       o.cache,
		concurrency: o.concurrency,
		logger:      logger,
		tracer:      tp.Tracer(instrumentationName),
		metrics:     m,
	}

	logger.DebugContext(ctx, "connector ready",
		slog.String("schema", schema),
		slog.Bool("legacy_type_mapping", o.legacyTypes),
		slog.Bool("metadata_cache", cached))
	return c
}

// Adapter returns the adapter the client was built with.
func (c *Client) Adapter() adapter.Adapter {
	return c.adapter
}

// Ping checks out a validated connection and returns it.
func (c *Client) Ping(ctx context.Context) (err error) {
	ctx, done := c.instrument(ctx, "ping")
	defer func() { done(err) }()

	lease, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	lease.Release()
	return nil
}

// ListEntities lists the base tables of the configured schema.
func (c *Client) ListEntities(ctx context.Context) (entities []core.Entity, err error) {
	ctx, done := c.instrument(ctx, "list_entities")
	defer func() { done(err) }()

	return c.introspector.ListEntities(ctx)
}

// DescribeEntity lists the fields of one entity.
func (c *Client) DescribeEntity(ctx context.Context, entityID string) (fields []core.FieldDefinition, err error) {
	ctx, done := c.instrument(ctx, "describe_entity", attribute.String("leapconnect.entity", entityID))
	defer func() { done(err) }()

	return c.introspector.DescribeEntity(ctx, entityID)
}

// DescribeAll describes several entities concurrently.
func (c *Client) DescribeAll(ctx context.Context, entityIDs []string) (fields map[string][]core.FieldDefinition, err error) {
	ctx, done := c.instrument(ctx, "describe_all", attribute.Int("leapconnect.entities", len(entityIDs)))
	defer func() { done(err) }()

	return c.introspector.DescribeAll(ctx, entityIDs, c.concurrency)
}

// GetTotalRecordCount counts the rows of an entity matching filter ("" for all).
func (c *Client) GetTotalRecordCount(ctx context.Context, entityID, filter string) (n int64, err error) {
	ctx, done := c.instrument(ctx, "count", attribute.String("leapconnect.entity", entityID))
	defer func() { done(err) }()

	return c.reader.Count(ctx, core.QueryRequest{EntityIdentifier: entityID, FilterExpression: filter})
}

// Query reads one page of records. Pass core.NextContinuationToken(req,
// len(records)) as the next request's token to continue.
func (c *Client) Query(ctx context.Context, req core.QueryRequest) (records []core.Record, err error) {
	ctx, done := c.instrument(ctx, "query",
		attribute.String("leapconnect.entity", req.EntityIdentifier),
		attribute.Int("leapconnect.page_size", req.PageSize))
	defer func() { done(err) }()

	records, err = c.reader.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	c.metrics.AddRecords(c.adapter.Name(), "read", len(records))
	return records, nil
}

// Write applies req and returns one affected-row count per record.
func (c *Client) Write(ctx context.Context, req core.WriteRequest) (counts []int64, err error) {
	ctx, done := c.instrument(ctx, "write",
		attribute.String("leapconnect.entity", req.EntityIdentifier),
		attribute.String("leapconnect.operation", string(req.Operation)),
		attribute.Int("leapconnect.records", len(req.Records)))
	defer func() { done(err) }()

	counts, err = c.writer.Write(ctx, req)
	if err != nil {
		return nil, err
	}
	c.metrics.AddRecords(c.adapter.Name(), "written", len(counts))
	return counts, nil
}

// Close releases the pool and the metadata cache.
func (c *Client) Close() error {
	var errs []error
	if err := c.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close pool: %w", err))
	}
	if err := c.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
	}
	return errors.Join(errs...)
}

// instrument starts a span and returns a function that ends it, records
// metrics and logs the outcome under a fresh correlation id.
func (c *Client) instrument(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	id := uuid.NewString()
	attrs = append(attrs,
		attribute.String("leapconnect.correlation_id", id),
		attribute.String("db.system", c.adapter.Name()))
	ctx, span := c.tracer.Start(ctx, "leapconnect."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		elapsed := time.Since(start)
		c.metrics.Observe(op, c.adapter.Name(), elapsed, err)
		if c.metrics != nil {
			c.metrics.ObservePool(c.adapter.Name(), c.pool.Stats())
		}

		logAttrs := []slog.Attr{
			slog.String("correlation_id", id),
			slog.String("operation", op),
			slog.Duration("elapsed", elapsed),
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logAttrs = append(logAttrs, slog.String("error", err.Error()))
			c.logger.LogAttrs(ctx, slog.LevelWarn, "operation failed", logAttrs...)
		} else {
			span.SetStatus(codes.Ok, "")
			c.logger.LogAttrs(ctx, slog.LevelDebug, "operation completed", logAttrs...)
		}
		span.End()
	}
}
