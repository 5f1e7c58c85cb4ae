package write

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/pool"
)

// Executor submits a statement batch on one connection. Adapters satisfy it.
type Executor interface {
	ExecBatch(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error)
	Diagnose(err error) []slog.Attr
}

// Runner executes write requests through a pool.
type Runner struct {
	Pool     *pool.Pool
	Builder  *Builder
	Executor Executor
	Logger   *slog.Logger
}

// Write builds every statement first, so an invalid record aborts before
// anything reaches the database, then submits the batch on one connection.
// The result holds one affected-row count per record, in record order;
// core.SuccessNoInfo marks a record whose count the driver did not report.
func (r *Runner) Write(ctx context.Context, req core.WriteRequest) ([]int64, error) {
	plan, err := r.Builder.Plan(req)
	if err != nil {
		return nil, err
	}
	if len(plan.Statements) == 0 {
		return []int64{}, nil
	}

	lease, err := r.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	r.logger().Debug("submitting write batch",
		slog.String("entity", req.EntityIdentifier),
		slog.String("operation", string(req.Operation)),
		slog.Int("records", len(req.Records)),
		slog.Int("statements", len(plan.Statements)))

	var counts []int64
	if r.Executor != nil {
		counts, err = r.Executor.ExecBatch(ctx, lease.Conn(), plan.Statements)
	} else {
		counts, err = adapter.ExecSequential(ctx, lease.Conn(), plan.Statements)
	}
	if err != nil {
		var diag adapter.Diagnoser
		if r.Executor != nil {
			diag = r.Executor
		}
		adapter.LogError(ctx, r.logger(), diag, "write failed", err)
		return nil, &core.StatementError{Op: "write", Err: err}
	}
	return plan.RecordCounts(counts), nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
