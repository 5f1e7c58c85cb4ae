// Package sqlite provides a SQLite adapter for LeapConnect backed by the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"log/slog"
	"net/url"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	litedialect "github.com/leapstack-labs/leapconnect/pkg/adapters/sqlite/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	msqlite "modernc.org/sqlite"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// The credential database is the file path; hostname and login are ignored.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "sqlite",
			DriverName:  "sqlite",
			D:           litedialect.SQLite,
			Logger:      logger,
			Required:    []string{"database"},
			BuildDSN:    buildSQLiteDSN,
		},
	}
}

// buildSQLiteDSN turns the path into a file: URI when options are present,
// so that SQLite itself sees parameters such as mode=ro. The driver consumes
// _pragma and _txlock either way.
func buildSQLiteDSN(c core.Credentials) (string, error) {
	if len(c.Options) == 0 {
		return c.Database, nil
	}
	q := url.Values{}
	for k, v := range c.Options {
		q.Set(k, v)
	}
	return "file:" + c.Database + "?" + q.Encode(), nil
}

// Diagnose extracts the extended result code from a *sqlite.Error.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	liteErr, ok := err.(*msqlite.Error) //nolint:errorlint // each link of the chain is inspected separately
	if !ok {
		return nil
	}
	return []slog.Attr{
		slog.Int("code", liteErr.Code()),
		slog.Int("primary_code", liteErr.Code()&0xff),
	}
}

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

var _ adapter.Adapter = (*Adapter)(nil)
