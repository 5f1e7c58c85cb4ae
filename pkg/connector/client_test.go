package connector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/leapstack-labs/leapconnect/internal/cache"
	ltestutil "github.com/leapstack-labs/leapconnect/internal/testutil"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	pgdialect "github.com/leapstack-labs/leapconnect/pkg/adapters/postgres/dialect"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

func openSQLite(t *testing.T, opts ...Option) *Client {
	t.Helper()
	creds := core.Credentials{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "shop.db")}
	opts = append([]Option{WithLogger(ltestutil.NewTestLogger(t))}, opts...)

	c, err := Open(context.Background(), creds, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seed(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	lease, err := c.pool.Acquire(ctx)
	require.NoError(t, err)
	defer lease.Release()

	for _, stmt := range []string{
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, status VARCHAR(10) NOT NULL, placed_at TIMESTAMP, paid BOOLEAN)`,
		`INSERT INTO orders VALUES (1, 'OPEN', '2024-01-01 10:00:00', 0), (2, 'OPEN', NULL, 1), (3, 'OPEN', NULL, 0), (4, 'CLOSED', NULL, 1)`,
	} {
		_, err := lease.Conn().ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), core.Credentials{Driver: "oracle"})
	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
}

func TestClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := openSQLite(t)
	seed(t, c)

	require.NoError(t, c.Ping(ctx))

	entities, err := c.ListEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Entity{core.NewEntity("orders")}, entities)

	fields, err := c.DescribeEntity(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, fields, 4)
	assert.Equal(t, core.FieldInteger, fields[0].DataType)
	assert.Equal(t, core.FieldString, fields[1].DataType)
	assert.Equal(t, core.FieldDate, fields[2].DataType)
	assert.Equal(t, core.FieldBoolean, fields[3].DataType)
	assert.True(t, fields[1].WriteProperties.IsNullable, "nullability is not derived by default")

	n, err := c.GetTotalRecordCount(ctx, "orders", "status = 'OPEN'")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	records, err := c.Query(ctx, core.QueryRequest{
		EntityIdentifier:   "orders",
		SelectedFieldNames: []string{"id", "status"},
		FilterExpression:   "status = 'OPEN'",
		PageSize:           2,
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	counts, err := c.Write(ctx, core.WriteRequest{
		EntityIdentifier: "orders",
		Operation:        core.OpUpsert,
		Records:          []string{`{"id": 4, "status": "OPEN"}`, `{"id": 5, "status": "OPEN"}`},
		IDFieldNames:     []string{"id"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1}, counts)

	n, err = c.GetTotalRecordCount(ctx, "orders", "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	all, err := c.DescribeAll(ctx, []string{"orders"})
	require.NoError(t, err)
	assert.Equal(t, fields, all["orders"])
}

func TestClient_LegacyTypeMapping(t *testing.T) {
	c := openSQLite(t, WithLegacyTypeMapping(true), WithDeriveNullability(true))
	seed(t, c)

	fields, err := c.DescribeEntity(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, core.FieldBoolean, fields[2].DataType, "TIMESTAMP maps to Boolean in legacy mode")
	assert.False(t, fields[1].WriteProperties.IsNullable)
}

func TestClient_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c := openSQLite(t, WithMetrics(reg))
	seed(t, c)

	_, err := c.Query(ctx, core.QueryRequest{EntityIdentifier: "orders", SelectedFieldNames: []string{"id"}})
	require.NoError(t, err)
	_, err = c.Query(ctx, core.QueryRequest{EntityIdentifier: "missing", SelectedFieldNames: []string{"id"}})
	require.Error(t, err)

	m := c.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("query", "sqlite", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("query", "sqlite", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Records.WithLabelValues("sqlite", "read")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Connections.WithLabelValues("sqlite", "in_use")))
	assert.Equal(t, float64(c.pool.Stats().Idle), testutil.ToFloat64(m.Connections.WithLabelValues("sqlite", "idle")))
}

func TestClient_Tracing(t *testing.T) {
	ctx := context.Background()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	c := openSQLite(t, WithTracerProvider(tp))
	seed(t, c)

	_, err := c.GetTotalRecordCount(ctx, "orders", "")
	require.NoError(t, err)
	_, err = c.GetTotalRecordCount(ctx, "orders", "1=1; DROP TABLE orders")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "leapconnect.count", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	var correlation string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "leapconnect.correlation_id" {
			correlation = kv.Value.AsString()
		}
	}
	assert.Len(t, correlation, 36)
}

func TestClient_MetadataCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	c := openSQLite(t, WithCache(rc, time.Minute))
	seed(t, c)

	first, err := c.DescribeEntity(ctx, "orders")
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	// The catalog changes but the cached description is served until expiry.
	lease, err := c.pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = lease.Conn().ExecContext(ctx, `ALTER TABLE orders ADD COLUMN note TEXT`)
	require.NoError(t, err)
	lease.Release()

	cached, err := c.DescribeEntity(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	mr.FastForward(2 * time.Minute)
	fresh, err := c.DescribeEntity(ctx, "orders")
	require.NoError(t, err)
	assert.Len(t, fresh, 5)
}

func TestClient_ConnectionFailure(t *testing.T) {
	creds := core.Credentials{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "no", "such", "dir.db")}
	c, err := Open(context.Background(), creds)
	require.NoError(t, err, "opening is lazy")
	defer func() { _ = c.Close() }()

	err = c.Ping(context.Background())
	assert.ErrorIs(t, err, core.ErrConnection)
}

func TestClient_ConfiguredSchemaScopesEveryOperation(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.NewWithDSN("connector-sales-schema")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := &adapter.BaseSQLAdapter{
		AdapterName: "postgres",
		DriverName:  "sqlmock",
		D:           pgdialect.Postgres,
		BuildDSN:    func(core.Credentials) (string, error) { return "connector-sales-schema", nil },
	}
	c, err := New(ctx, a, core.Credentials{Driver: "postgres", Schema: "sales"}, WithLogger(ltestutil.NewTestLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	mock.ExpectQuery(`FROM information_schema\.columns`).
		WithArgs("sales", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "integer", "NO"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS cnt FROM "sales"\."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT "id" FROM "sales"\."orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO "sales"\."orders" \("id"\) VALUES \(\$1\)`).
		WithArgs("8").
		WillReturnResult(sqlmock.NewResult(0, 1))

	fields, err := c.DescribeEntity(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, fields, 1)

	n, err := c.GetTotalRecordCount(ctx, "orders", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	records, err := c.Query(ctx, core.QueryRequest{EntityIdentifier: "orders", SelectedFieldNames: []string{fields[0].FieldName}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "7", *records[0]["id"])

	counts, err := c.Write(ctx, core.WriteRequest{EntityIdentifier: "orders", Operation: core.OpInsert, Records: []string{`{"id": 8}`}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, counts)

	assert.NoError(t, mock.ExpectationsWereMet())
}
