// Package dialect provides the Microsoft SQL Server dialect definition.
package dialect

import (
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

func init() {
	dialect.Register(SQLServer)
}

const listTablesSQL = `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

const describeSQL = `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`

// SQLServer is the SQL Server dialect configuration.
var SQLServer = dialect.NewDialect("sqlserver").
	Identifiers("[", "]", "]]").
	DefaultSchema("dbo").
	PlaceholderStyle(core.PlaceholderAtP).
	Pagination(core.PaginateOffsetFetch).
	Upsert(core.UpsertMerge).
	Catalog(listTablesSQL, describeSQL).
	Types(map[string]core.PortableFieldType{
		"TINYINT":          core.FieldInteger,
		"FLOAT":            core.FieldInteger,
		"MONEY":            core.FieldInteger,
		"SMALLMONEY":       core.FieldInteger,
		"DATETIME":         core.FieldDate,
		"DATETIME2":        core.FieldDate,
		"SMALLDATETIME":    core.FieldDate,
		"DATETIMEOFFSET":   core.FieldDate,
		"BIT":              core.FieldBoolean,
		"UNIQUEIDENTIFIER": core.FieldString,
	}).
	Build()
