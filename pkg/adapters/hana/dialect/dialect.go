// Package dialect provides the SAP HANA SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(HANA)
}

// An empty schema argument falls back to the session's CURRENT_SCHEMA.
const listTablesSQL = `
		SELECT TABLE_NAME
		FROM SYS.TABLES
		WHERE SCHEMA_NAME = COALESCE(NULLIF(?, ''), CURRENT_SCHEMA)
		ORDER BY TABLE_NAME`

const describeSQL = `
		SELECT COLUMN_NAME, DATA_TYPE_NAME, CASE WHEN IS_NULLABLE = 'TRUE' THEN 'YES' ELSE 'NO' END
		FROM SYS.TABLE_COLUMNS
		WHERE SCHEMA_NAME = COALESCE(NULLIF(?, ''), CURRENT_SCHEMA) AND TABLE_NAME = ?
		ORDER BY POSITION`

// HANA is the SAP HANA dialect configuration.
var HANA = dialect.NewDialect("hana").
	Identifiers(`"`, `"`, `""`).
	PlaceholderStyle(core.PlaceholderQuestion).
	Pagination(core.PaginateLimitOffset).
	Upsert(core.UpsertValuesWhere).
	Catalog(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"TINYINT":      core.FieldInteger,
		"SMALLDECIMAL": core.FieldInteger,
		"DOUBLE":       core.FieldInteger,
		"SECONDDATE":   core.FieldDate,
		"ALPHANUM":     core.FieldString,
		"SHORTTEXT":    core.FieldString,
		"NCLOB":        core.FieldString,
	}).
	Build()
