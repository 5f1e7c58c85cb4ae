package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

// NetworkCredentialKeys are the credentials network adapters require.
// The port is optional; each adapter falls back to its engine's default.
var NetworkCredentialKeys = []string{"hostname", "database", "username", "password"}

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Open, Diagnose, and ExecBatch implementations.
type BaseSQLAdapter struct {
	AdapterName string
	DriverName  string
	D           *dialect.Dialect
	Logger      *slog.Logger

	// Required lists credential keys that must be non-empty.
	Required []string

	// BuildDSN assembles the driver connection string.
	BuildDSN func(core.Credentials) (string, error)
}

// Name returns the registry name of the adapter.
func (b *BaseSQLAdapter) Name() string {
	return b.AdapterName
}

// Dialect returns the adapter's dialect.
func (b *BaseSQLAdapter) Dialect() *dialect.Dialect {
	return b.D
}

// Open validates the credentials, builds the DSN and opens the handle.
func (b *BaseSQLAdapter) Open(creds core.Credentials) (*sql.DB, error) {
	if err := RequireCredentials(creds, b.Required...); err != nil {
		return nil, err
	}
	if b.BuildDSN == nil {
		return nil, fmt.Errorf("adapter %s has no DSN builder", b.AdapterName)
	}
	dsn, err := b.BuildDSN(creds)
	if err != nil {
		return nil, err
	}

	b.logger().Debug("opening database handle",
		slog.String("driver", b.DriverName),
		slog.String("dsn", RedactDSN(dsn)))

	db, err := sql.Open(b.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", b.AdapterName, err)
	}
	return db, nil
}

// Diagnose returns nil; adapters with typed driver errors override it.
func (b *BaseSQLAdapter) Diagnose(error) []slog.Attr {
	return nil
}

// ExecBatch executes statements one after another on conn.
// Drivers that cannot report affected rows yield core.SuccessNoInfo.
func (b *BaseSQLAdapter) ExecBatch(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error) {
	return ExecSequential(ctx, conn, stmts)
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// ExecSequential is the default batch strategy.
func ExecSequential(ctx context.Context, conn *sql.Conn, stmts []core.Statement) ([]int64, error) {
	counts := make([]int64, 0, len(stmts))
	for i, s := range stmts {
		res, err := conn.ExecContext(ctx, s.SQL, s.Args...)
		if err != nil {
			return counts, fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = core.SuccessNoInfo
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// RequireCredentials reports the first required credential that is unset.
func RequireCredentials(creds core.Credentials, keys ...string) error {
	var missing []string
	for _, k := range keys {
		switch k {
		case "hostname":
			if creds.Hostname == "" {
				missing = append(missing, k)
			}
		case "port":
			if creds.Port == 0 {
				missing = append(missing, k)
			}
		case "database":
			if creds.Database == "" {
				missing = append(missing, k)
			}
		case "username":
			if creds.Username == "" {
				missing = append(missing, k)
			}
		case "password":
			if creds.Password == "" {
				missing = append(missing, k)
			}
		}
	}
	if len(missing) > 0 {
		return &core.InvalidInputError{
			Field:  "credentials",
			Reason: "missing " + strings.Join(missing, ", "),
		}
	}
	return nil
}

// RedactDSN hides the password in a connection string for logging.
func RedactDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil {
			return u.Redacted()
		}
		return "[redacted]"
	}
	if i := strings.LastIndex(dsn, "@"); i >= 0 {
		return "xxxxx" + dsn[i:]
	}
	return dsn
}
