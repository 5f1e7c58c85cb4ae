// Package dialect provides the MySQL SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
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

// MySQL is the MySQL/MariaDB dialect configuration.
// A MySQL schema is a database, so the schema defaults to the connected database.
var MySQL = dialect.NewDialect("mysql").
	Identifiers("`", "`", "``").
	SchemaFromDatabase().
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.PaginateLimitOffset).
	Upsert(core.UpsertOnDuplicateKey).
	Catalog(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"TINYINT":   core.FieldInteger,
		"MEDIUMINT": core.FieldInteger,
		"FLOAT":     core.FieldInteger,
		"DOUBLE":    core.FieldInteger,
		"YEAR":      core.FieldInteger,
		"DATETIME":  core.FieldDate,
		"BIT":       core.FieldBoolean,
		"JSON":      core.FieldString,
		"ENUM":      core.FieldString,
	}).
	Build()
