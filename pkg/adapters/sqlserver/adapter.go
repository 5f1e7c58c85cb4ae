// Package sqlserver provides a Microsoft SQL Server adapter for LeapConnect.
package sqlserver

import (
	"errors"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	msdialect "github.com/leapstack-labs/leapconnect/pkg/adapters/sqlserver/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// DefaultPort is used when the credentials carry no port.
const DefaultPort = 1433

// Adapter implements the adapter.Adapter interface for SQL Server.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQL Server adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "sqlserver",
			DriverName:  "sqlserver",
			D:           msdialect.SQLServer,
			Logger:      logger,
			Required:    adapter.NetworkCredentialKeys,
			BuildDSN:    buildSQLServerURL,
		},
	}
}

// buildSQLServerURL constructs a sqlserver:// URL; options become query parameters.
func buildSQLServerURL(c core.Credentials) (string, error) {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	q := url.Values{}
	q.Set("database", c.Database)
	for k, v := range c.Options {
		q.Set(k, v)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Hostname, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	return u.String(), nil
}

// Diagnose extracts error number, state and class from an mssql.Error.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	var msErr mssql.Error
	switch e := err.(type) { //nolint:errorlint // each link of the chain is inspected separately
	case mssql.Error:
		msErr = e
	case *mssql.Error:
		msErr = *e
	default:
		return nil
	}
	attrs := []slog.Attr{
		slog.Int("code", int(msErr.Number)),
		slog.Int("state", int(msErr.State)),
		slog.Int("class", int(msErr.Class)),
	}
	if msErr.ProcName != "" {
		attrs = append(attrs, slog.String("procedure", msErr.ProcName))
	}
	if len(msErr.All) > 1 {
		attrs = append(attrs, slog.Int("messages", len(msErr.All)))
	}
	return attrs
}

// IsDeadlock reports whether err carries SQL Server error 1205.
func IsDeadlock(err error) bool {
	var msErr mssql.Error
	return errors.As(err, &msErr) && msErr.Number == 1205
}

func init() {
	adapter.Register("sqlserver", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
	adapter.Register("mssql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

var _ adapter.Adapter = (*Adapter)(nil)
