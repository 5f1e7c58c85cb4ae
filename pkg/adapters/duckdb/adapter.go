// Package duckdb provides a DuckDB database adapter for LeapConnect.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	duckdialect "github.com/leapstack-labs/leapconnect/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/marcboeker/go-duckdb"
)

var extensionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// The credential database is the file path; empty opens an in-memory database.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			AdapterName: "duckdb",
			DriverName:  "duckdb",
			D:           duckdialect.DuckDB,
			Logger:      logger,
		},
	}
}

// Open builds a connector that loads the configured extensions on every new connection.
func (a *Adapter) Open(creds core.Credentials) (*sql.DB, error) {
	params, err := ParseParams(creds.Options)
	if err != nil {
		return nil, err
	}
	dsn := buildDuckDBDSN(creds.Database, params.Settings)

	a.Logger.Debug("opening duckdb",
		slog.String("path", creds.Database),
		slog.Any("extensions", params.Extensions))

	connector, err := duckdb.NewConnector(dsn, func(execer driver.ExecerContext) error {
		for _, ext := range params.Extensions {
			if _, err := execer.ExecContext(context.Background(), "INSTALL "+ext+"; LOAD "+ext, nil); err != nil {
				return fmt.Errorf("failed to load extension %s: %w", ext, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Diagnose extracts the DuckDB error type from a *duckdb.Error.
func (a *Adapter) Diagnose(err error) []slog.Attr {
	duckErr, ok := err.(*duckdb.Error) //nolint:errorlint // each link of the chain is inspected separately
	if !ok {
		return nil
	}
	return []slog.Attr{slog.Int("error_type", int(duckErr.Type))}
}

// ParseParams decodes DuckDB-specific options.
func ParseParams(opts map[string]string) (Params, error) {
	var p Params
	if len(opts) == 0 {
		return p, nil
	}
	in := make(map[string]any, len(opts))
	for k, v := range opts {
		in[k] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &p,
		DecodeHook: mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return p, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return p, &core.InvalidInputError{Field: "options", Reason: err.Error()}
	}
	for i, ext := range p.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !extensionName.MatchString(ext) {
			return p, &core.InvalidInputError{Field: "options.extensions", Reason: fmt.Sprintf("invalid extension name %q", ext)}
		}
		p.Extensions[i] = ext
	}
	return p, nil
}

func buildDuckDBDSN(path string, settings map[string]string) string {
	if len(settings) == 0 {
		return path
	}
	q := url.Values{}
	for k, v := range settings {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}

var _ adapter.Adapter = (*Adapter)(nil)
