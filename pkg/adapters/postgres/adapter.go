// Package postgres provides a PostgreSQL database adapter for LeapConnect.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	pgdialect "github.com/leapstack-labs/leapconnect/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// DefaultPort is used when the credentials carry no port.
const DefaultPort = 5432

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "postgres",
			DriverName:  "pgx",
			D:           pgdialect.Postgres,
			Logger:      logger,
			Required:    adapter.NetworkCredentialKeys,
			BuildDSN:    func(c core.Credentials) (string, error) { return BuildURL(c, DefaultPort), nil },
		},
	}
}

// BuildURL constructs a postgres:// connection URL.
// Options become query parameters; sslmode defaults to disable.
func BuildURL(c core.Credentials, defaultPort int) string {
	host := c.Hostname
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	q := url.Values{}
	q.Set("sslmode", "disable")
	for k, v := range c.Options {
		q.Set(k, v)
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	return u.String()
}

// Diagnose extracts server-reported fields from a *pgconn.PgError.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	return DiagnosePgError(err)
}

// ExecBatch sends all statements in one pipelined round trip.
func (a *Adapter) ExecBatch(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error) {
	return ExecPipeline(ctx, conn, stmts)
}

// DiagnosePgError returns SQLSTATE and related fields when err itself is a *pgconn.PgError.
func DiagnosePgError(err error) []slog.Attr {
	pgErr, ok := err.(*pgconn.PgError) //nolint:errorlint // each link of the chain is inspected separately
	if !ok {
		return nil
	}
	attrs := []slog.Attr{
		slog.String("sqlstate", pgErr.Code),
		slog.String("severity", pgErr.Severity),
	}
	if pgErr.Detail != "" {
		attrs = append(attrs, slog.String("detail", pgErr.Detail))
	}
	if pgErr.Hint != "" {
		attrs = append(attrs, slog.String("hint", pgErr.Hint))
	}
	if pgErr.TableName != "" {
		attrs = append(attrs, slog.String("table", pgErr.TableName))
	}
	if pgErr.ColumnName != "" {
		attrs = append(attrs, slog.String("column", pgErr.ColumnName))
	}
	if pgErr.ConstraintName != "" {
		attrs = append(attrs, slog.String("constraint", pgErr.ConstraintName))
	}
	return attrs
}

var errNotPgx = errors.New("not a pgx connection")

// ExecPipeline queues statements into a pgx.Batch, which the server runs in
// one implicit transaction. Connections not backed by pgx fall back to
// sequential execution.
func ExecPipeline(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error) {
	counts := make([]int64, 0, len(stmts))
	err := conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return errNotPgx
		}

		batch := &pgx.Batch{}
		for _, s := range stmts {
			batch.Queue(s.SQL, s.Args...)
		}

		br := sc.Conn().SendBatch(ctx, batch)
		for i := range stmts {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
			}
			counts = append(counts, tag.RowsAffected())
		}
		return br.Close()
	})
	if errors.Is(err, errNotPgx) {
		return adapter.ExecSequential(ctx, conn, stmts)
	}
	return counts, err
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
