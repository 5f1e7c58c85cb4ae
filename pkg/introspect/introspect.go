// Package introspect lists the entities of a data source and describes
// their fields from the live catalog.
package introspect

import (
	"context"
	"database/sql"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapconnect/internal/cache"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
	"github.com/leapstack-labs/leapconnect/pkg/typemap"
)

// DefaultConcurrency bounds DescribeAll when no limit is given.
const DefaultConcurrency = 4

// Introspector reads entity and field metadata through a connection pool.
type Introspector struct {
	Pool      *pool.Pool
	Dialect   *dialect.Dialect
	Mapper    *typemap.Mapper
	Diagnoser adapter.Diagnoser
	Logger    *slog.Logger

	// Schema scopes catalog lookups; see dialect.ResolveSchema.
	Schema string

	// DeriveNullability reports IsNullable from the catalog instead of
	// always true.
	DeriveNullability bool

	// Cache, when set, holds describe results for CacheTTL.
	// Scope distinguishes data sources sharing one cache.
	Cache    cache.Cache
	CacheTTL time.Duration
	Scope    string
}

// ListEntities returns one entity per base table in the schema, in catalog order.
func (in *Introspector) ListEntities(ctx context.Context) ([]core.Entity, error) {
	lease, err := in.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	query, args := in.Dialect.ListTablesQuery(in.Schema)
	rows, err := lease.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, in.statementError(ctx, "list entities", err)
	}
	defer func() { _ = rows.Close() }()

	var entities []core.Entity
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, in.statementError(ctx, "list entities", err)
		}
		entities = append(entities, core.NewEntity(name))
	}
	if err := rows.Err(); err != nil {
		return nil, in.statementError(ctx, "list entities", err)
	}

	in.logger().Debug("listed entities",
		slog.String("schema", in.Schema),
		slog.Int("count", len(entities)))
	return entities, nil
}

// DescribeEntity returns the fields of entityID in ordinal order.
// An entity with no columns yields *core.NotFoundError.
func (in *Introspector) DescribeEntity(ctx context.Context, entityID string) ([]core.FieldDefinition, error) {
	if err := dialect.ValidateIdentifier("entityIdentifier", entityID); err != nil {
		return nil, err
	}

	key := cache.Key("describe", in.Scope, in.Schema, entityID, in.variant())
	if fields, ok := in.cached(ctx, key); ok {
		return fields, nil
	}

	lease, err := in.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	fields, err := in.describe(ctx, lease.Conn(), entityID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &core.NotFoundError{Entity: entityID}
	}

	in.store(ctx, key, fields)
	return fields, nil
}

// DescribeAll describes entities concurrently, at most concurrency at a time.
// The result is keyed by entity identifier. The first failure cancels the rest.
func (in *Introspector) DescribeAll(ctx context.Context, entityIDs []string, concurrency int) (map[string][]core.FieldDefinition, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([][]core.FieldDefinition, len(entityIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range entityIDs {
		g.Go(func() error {
			fields, err := in.DescribeEntity(gctx, id)
			if err != nil {
				return err
			}
			results[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]core.FieldDefinition, len(entityIDs))
	for i, id := range entityIDs {
		out[id] = results[i]
	}
	return out, nil
}

func (in *Introspector) describe(ctx context.Context, conn *sql.Conn, entityID string) ([]core.FieldDefinition, error) {
	query, args := in.Dialect.DescribeQuery(in.Schema, entityID)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, in.statementError(ctx, "describe entity", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.FieldDefinition
	for rows.Next() {
		var name, native string
		var nullable sql.NullString
		if err := rows.Scan(&name, &native, &nullable); err != nil {
			return nil, in.statementError(ctx, "describe entity", err)
		}
		fields = append(fields, in.field(name, native, nullable))
	}
	if err := rows.Err(); err != nil {
		return nil, in.statementError(ctx, "describe entity", err)
	}
	return fields, nil
}

func (in *Introspector) field(name, native string, nullable sql.NullString) core.FieldDefinition {
	isNullable := true
	if in.DeriveNullability && nullable.Valid {
		isNullable = strings.EqualFold(strings.TrimSpace(nullable.String), "YES")
	}
	return core.FieldDefinition{
		FieldName:     name,
		DataType:      in.Mapper.Map(native),
		DataTypeLabel: native,
		Label:         name,
		NativeType:    native,
		ReadProperties: core.ReadProperties{
			IsQueryable:   true,
			IsRetrievable: true,
		},
		WriteProperties: core.WriteProperties{
			IsNullable:               isNullable,
			IsUpdatable:              true,
			IsCreatable:              true,
			SupportedWriteOperations: slices.Clone(core.SupportedWriteOperations),
		},
	}
}

func (in *Introspector) variant() string {
	if in.DeriveNullability {
		return "nullability"
	}
	return "default"
}

func (in *Introspector) cached(ctx context.Context, key string) ([]core.FieldDefinition, bool) {
	if in.Cache == nil {
		return nil, false
	}
	b, ok, err := in.Cache.Get(ctx, key)
	if err != nil {
		in.logger().Warn("metadata cache read failed, bypassing", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var fields []core.FieldDefinition
	if err := json.Unmarshal(b, &fields); err != nil {
		in.logger().Warn("discarding undecodable cache entry", slog.String("error", err.Error()))
		return nil, false
	}
	return fields, true
}

func (in *Introspector) store(ctx context.Context, key string, fields []core.FieldDefinition) {
	if in.Cache == nil {
		return
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return
	}
	if err := in.Cache.Set(ctx, key, b, in.CacheTTL); err != nil {
		in.logger().Warn("metadata cache write failed", slog.String("error", err.Error()))
	}
}

func (in *Introspector) statementError(ctx context.Context, op string, err error) error {
	adapter.LogError(ctx, in.logger(), in.Diagnoser, op+" failed", err)
	return &core.StatementError{Op: op, Err: err}
}

func (in *Introspector) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return in.Logger
}
