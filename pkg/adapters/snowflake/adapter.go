// Package snowflake provides a Snowflake adapter for LeapConnect backed by gosnowflake.
package snowflake

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	sfdialect "github.com/leapstack-labs/leapconnect/pkg/adapters/snowflake/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/snowflakedb/gosnowflake"
)

// Adapter implements the adapter.Adapter interface for Snowflake.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Snowflake adapter instance.
// The hostname carries the account identifier, with or without the
// .snowflakecomputing.com suffix.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "snowflake",
			DriverName:  "snowflake",
			D:           sfdialect.Snowflake,
			Logger:      logger,
			Required:    adapter.NetworkCredentialKeys,
			BuildDSN:    buildSnowflakeDSN,
		},
	}
}

func buildSnowflakeDSN(c core.Credentials) (string, error) {
	cfg := &gosnowflake.Config{
		Account:  strings.TrimSuffix(strings.ToLower(c.Hostname), ".snowflakecomputing.com"),
		User:     c.Username,
		Password: c.Password,
		Database: c.Database,
		Schema:   c.Schema,
	}
	params := make(map[string]*string)
	for k, v := range c.Options {
		switch strings.ToLower(k) {
		case "warehouse":
			cfg.Warehouse = v
		case "role":
			cfg.Role = v
		default:
			params[k] = &v
		}
	}
	if len(params) > 0 {
		cfg.Params = params
	}

	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake dsn: %w", err)
	}
	return dsn, nil
}

// Diagnose extracts the error number, SQLSTATE and query id from a *gosnowflake.SnowflakeError.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	sfErr, ok := err.(*gosnowflake.SnowflakeError) //nolint:errorlint // each link of the chain is inspected separately
	if !ok {
		return nil
	}
	attrs := []slog.Attr{slog.Int("code", sfErr.Number)}
	if sfErr.SQLState != "" {
		attrs = append(attrs, slog.String("sqlstate", sfErr.SQLState))
	}
	if sfErr.QueryID != "" {
		attrs = append(attrs, slog.String("query_id", sfErr.QueryID))
	}
	return attrs
}

func init() {
	adapter.Register("snowflake", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

var _ adapter.Adapter = (*Adapter)(nil)
