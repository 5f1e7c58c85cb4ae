// Package dialect provides the DuckDB SQL dialect definition.
// This package is lightweight and has no database driver dependencies.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

const listTablesSQL = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`

const describeSQL = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

// DuckDB is the DuckDB dialect configuration.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.PaginateLimitOffset).
	Upsert(core.UpsertOnConflict).
	Catalog(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"TINYINT":                  core.FieldInteger,
		"HUGEINT":                  core.FieldInteger,
		"UTINYINT":                 core.FieldInteger,
		"USMALLINT":                core.FieldInteger,
		"UINTEGER":                 core.FieldInteger,
		"UBIGINT":                  core.FieldInteger,
		"FLOAT":                    core.FieldInteger,
		"DOUBLE":                   core.FieldInteger,
		"TIMESTAMP WITH TIME ZONE": core.FieldDate,
		"TIMESTAMP_NS":             core.FieldDate,
		"INTERVAL":                 core.FieldString,
		"UUID":                     core.FieldString,
	}).
	Build()
