package query

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
)

// Runner executes read statements through a pool.
type Runner struct {
	Pool      *pool.Pool
	Builder   *Builder
	Diagnoser adapter.Diagnoser
	Logger    *slog.Logger
}

// Count returns the number of rows in the entity matching the filter.
func (r *Runner) Count(ctx context.Context, req core.QueryRequest) (int64, error) {
	stmt, err := r.Builder.BuildCount(req)
	if err != nil {
		return 0, err
	}

	lease, err := r.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer lease.Release()

	var n int64
	if err := lease.Conn().QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&n); err != nil {
		return 0, r.statementError(ctx, "count", err)
	}
	return n, nil
}

// Query returns one page of records keyed by the selected field names.
// Values are returned as text; SQL NULL is a nil value.
func (r *Runner) Query(ctx context.Context, req core.QueryRequest) ([]core.Record, error) {
	stmt, err := r.Builder.BuildSelect(req)
	if err != nil {
		return nil, err
	}

	lease, err := r.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	r.logger().Debug("executing query",
		slog.String("entity", req.EntityIdentifier),
		slog.String("sql", stmt.SQL))

	rows, err := lease.Conn().QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, r.statementError(ctx, "query", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows, req.SelectedFieldNames)
	if err != nil {
		return nil, r.statementError(ctx, "query", err)
	}
	return records, nil
}

// scanRecords reads rows positionally and keys each value by the requested
// field name, independent of the label the driver reports.
func scanRecords(rows *sql.Rows, names []string) ([]core.Record, error) {
	values := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	records := []core.Record{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := make(core.Record, len(names))
		for i, name := range names {
			if values[i].Valid {
				s := values[i].String
				rec[name] = &s
			} else {
				rec[name] = nil
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Runner) statementError(ctx context.Context, op string, err error) error {
	adapter.LogError(ctx, r.logger(), r.Diagnoser, op+" failed", err)
	return &core.StatementError{Op: op, Err: err}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
