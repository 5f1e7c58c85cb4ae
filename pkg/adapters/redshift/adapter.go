// Package redshift provides an Amazon Redshift adapter for LeapConnect.
//
// Redshift speaks the PostgreSQL wire protocol, so the adapter reuses the
// pgx driver, URL builder and pipelined batch execution from the postgres
// adapter and swaps in the Redshift dialect.
package redshift

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/adapters/postgres"
	rsdialect "github.com/leapstack-labs/leapconnect/pkg/adapters/redshift/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// DefaultPort is the Redshift cluster port.
const DefaultPort = 5439

// Adapter implements the adapter.Adapter interface for Redshift.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Redshift adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "redshift",
			DriverName:  "pgx",
			D:           rsdialect.Redshift,
			Logger:      logger,
			Required:    adapter.NetworkCredentialKeys,
			BuildDSN:    func(c core.Credentials) (string, error) { return postgres.BuildURL(c, DefaultPort), nil },
		},
	}
}

// Diagnose extracts server-reported fields from a *pgconn.PgError.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	return postgres.DiagnosePgError(err)
}

// ExecBatch sends all statements in one pipelined round trip.
func (a *Adapter) ExecBatch(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error) {
	return postgres.ExecPipeline(ctx, conn, stmts)
}

func init() {
	adapter.Register("redshift", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

var _ adapter.Adapter = (*Adapter)(nil)
