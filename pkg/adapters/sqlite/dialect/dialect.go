// Package dialect provides the SQLite SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

const listTablesSQL = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

const describeSQL = `
		SELECT name, type, CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END
		FROM pragma_table_info(?)
		ORDER BY cid`

// SQLite is the SQLite dialect configuration.
var SQLite = dialect.NewDialect("sqlite").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.PaginateLimitOffset).
	Upsert(core.UpsertOnConflict).
	CatalogWithoutSchema(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"FLOAT":    core.FieldInteger,
		"DOUBLE":   core.FieldInteger,
		"DATETIME": core.FieldDate,
		"BLOB":     core.FieldString,
	}).
	Build()
