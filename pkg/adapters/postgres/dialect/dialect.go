// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies,
// making it suitable for statement builders and tests that need
// dialect information without the overhead of database connections.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

const listTablesSQL = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

const describeSQL = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

// Types are the spellings information_schema reports that the base table lacks.
var Types = map[string]core.PortableFieldType{
	"INT2":                        core.FieldInteger,
	"INT4":                        core.FieldInteger,
	"INT8":                        core.FieldInteger,
	"FLOAT":                       core.FieldInteger,
	"MONEY":                       core.FieldInteger,
	"TIMESTAMP WITHOUT TIME ZONE": core.FieldDate,
	"TIMESTAMP WITH TIME ZONE":    core.FieldDate,
	"TIME WITHOUT TIME ZONE":      core.FieldDate,
	"TIME WITH TIME ZONE":         core.FieldDate,
	"INTERVAL":                    core.FieldString,
	"UUID":                        core.FieldString,
	"JSONB":                       core.FieldString,
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	Pagination(core.PaginateOffsetLimit).
	Upsert(core.UpsertOnConflict).
	Catalog(listTablesSQL, describeSQL).
	Types(Types).
	Build()
