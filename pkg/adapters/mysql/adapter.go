// Package mysql provides a MySQL/MariaDB adapter for LeapConnect.
package mysql

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	mydialect "github.com/leapstack-labs/leapconnect/pkg/adapters/mysql/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// DefaultPort is used when the credentials carry no port.
const DefaultPort = 3306

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "mysql",
			DriverName:  "mysql",
			D:           mydialect.MySQL,
			Logger:      logger,
			Required:    adapter.NetworkCredentialKeys,
			BuildDSN:    buildMySQLDSN,
		},
	}
}

// buildMySQLDSN constructs a go-sql-driver DSN. Options become DSN parameters.
func buildMySQLDSN(c core.Credentials) (string, error) {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Hostname, strconv.Itoa(port))
	cfg.DBName = c.Database
	if len(c.Options) > 0 {
		cfg.Params = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

// Diagnose extracts the server error number and SQLSTATE from a *mysql.MySQLError.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	myErr, ok := err.(*mysql.MySQLError) //nolint:errorlint // each link of the chain is inspected separately
	if !ok {
		return nil
	}
	attrs := []slog.Attr{slog.Int("code", int(myErr.Number))}
	if myErr.SQLState != [5]byte{} {
		attrs = append(attrs, slog.String("sqlstate", string(myErr.SQLState[:])))
	}
	return attrs
}

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

var _ adapter.Adapter = (*Adapter)(nil)
