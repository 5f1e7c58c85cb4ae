package typemap

import "github.com/leapstack-labs/leapconnect/pkg/core"

var baseTypes = map[string]core.PortableFieldType{
	// numeric family
	"SMALLINT":         core.FieldInteger,
	"BIGINT":           core.FieldInteger,
	"DECIMAL":          core.FieldInteger,
	"NUMERIC":          core.FieldInteger,
	"REAL":             core.FieldInteger,
	"DOUBLE PRECISION": core.FieldInteger,
	"FLOAT8":           core.FieldInteger,
	"FLOAT4":           core.FieldInteger,
	"INTEGER":          core.FieldInteger,
	"INT":              core.FieldInteger,

	// character family
	"CHAR":              core.FieldString,
	"VARCHAR":           core.FieldString,
	"CHARACTER":         core.FieldString,
	"NCHAR":             core.FieldString,
	"CHARACTER VARYING": core.FieldString,
	"NVARCHAR":          core.FieldString,
	"BPCHAR":            core.FieldString,
	"TEXT":              core.FieldString,

	// semi-structured, binary and spatial
	"HLLSKETCH": core.FieldString,
	"SUPER":     core.FieldString,
	"VARBYTE":   core.FieldString,
	"GEOMETRY":  core.FieldString,
	"GEOGRAPHY": core.FieldString,

	"DATE":    core.FieldDate,
	"BOOLEAN": core.FieldBoolean,
}

var temporalTypes = map[string]core.PortableFieldType{
	"INT2":                   core.FieldInteger,
	"INT4":                   core.FieldInteger,
	"BOOL":                   core.FieldBoolean,
	"TIME":                   core.FieldDate,
	"TIMETZ":                 core.FieldDate,
	"TIMESTAMP":              core.FieldDate,
	"TIMESTAMPTZ":            core.FieldDate,
	"INTERVAL YEAR TO MONTH": core.FieldString,
	"INTERVAL DAY TO SECOND": core.FieldString,
}

var legacyTypes = map[string]core.PortableFieldType{
	"INT2":                   core.FieldString,
	"INT4":                   core.FieldString,
	"TIME":                   core.FieldBoolean,
	"TIMETZ":                 core.FieldBoolean,
	"TIMESTAMP":              core.FieldBoolean,
	"TIMESTAMPTZ":            core.FieldBoolean,
	"INTERVAL YEAR TO MONTH": core.FieldBoolean,
	"INTERVAL DAY TO SECOND": core.FieldBoolean,
}
