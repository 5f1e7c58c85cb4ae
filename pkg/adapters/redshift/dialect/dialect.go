// Package dialect provides the Amazon Redshift SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(Redshift)
}

const listTablesSQL = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'`

// pg_table_def only lists tables in schemas on the search_path.
const describeSQL = `
		SELECT "column", type, CASE WHEN "notnull" THEN 'NO' ELSE 'YES' END
		FROM pg_table_def
		WHERE schemaname = $1 AND tablename = $2`

// Redshift is the Amazon Redshift dialect configuration.
// Redshift has no INSERT ... ON CONFLICT, so upserts delete the keyed row first.
var Redshift = dialect.NewDialect("redshift").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	Pagination(core.PaginateOffsetLimit).
	Upsert(core.UpsertDeleteInsert).
	Catalog(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"TIMESTAMP WITHOUT TIME ZONE": core.FieldDate,
		"TIMESTAMP WITH TIME ZONE":    core.FieldDate,
		"TIME WITHOUT TIME ZONE":      core.FieldDate,
		"TIME WITH TIME ZONE":         core.FieldDate,
		"INT8":                        core.FieldInteger,
	}).
	Build()
