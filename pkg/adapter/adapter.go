// Package adapter binds SQL dialects to database/sql drivers.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Name returns the registry name of the adapter (the credential "driver" value).
	Name() string

	// Dialect returns the SQL dialect configuration for this adapter.
	Dialect() *dialect.Dialect

	// Open returns a lazily-connecting handle for the credentials.
	// No network round trip happens until a connection is checked out.
	Open(creds core.Credentials) (*sql.DB, error)

	// Diagnose extracts driver-reported state from a single error in a chain,
	// such as SQLSTATE, vendor code or severity. It returns nil for foreign errors.
	Diagnose(err error) []slog.Attr

	// ExecBatch submits statements on one connection and returns the
	// affected-row count of each, in submission order.
	ExecBatch(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error)
}
