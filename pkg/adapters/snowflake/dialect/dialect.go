// Package dialect provides the Snowflake SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(Snowflake)
}

const listTablesSQL = `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

const describeSQL = `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

// Snowflake is the Snowflake dialect configuration.
var Snowflake = dialect.NewDialect("snowflake").
	Identifiers(`"`, `"`, `""`).
	DefaultSchema("PUBLIC").
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.PaginateLimitOffset).
	Upsert(core.UpsertMerge).
	Catalog(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"NUMBER":        core.FieldInteger,
		"FLOAT":         core.FieldInteger,
		"DOUBLE":        core.FieldInteger,
		"DATETIME":      core.FieldDate,
		"TIMESTAMP_NTZ": core.FieldDate,
		"TIMESTAMP_LTZ": core.FieldDate,
		"TIMESTAMP_TZ":  core.FieldDate,
		"VARIANT":       core.FieldString,
		"OBJECT":        core.FieldString,
		"ARRAY":         core.FieldString,
	}).
	Build()
