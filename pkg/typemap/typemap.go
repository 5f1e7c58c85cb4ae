// Package typemap translates database-native column type names into the
// portable field-type taxonomy.
//
// Mapping is table-driven: a native name is normalised (length/precision
// suffix removed, whitespace collapsed, uppercased) and looked up in a
// table. Anything not in the table maps to String, so Map is total.
package typemap

import (
	"maps"
	"strings"

	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// Mapper maps native type names to portable field types.
// A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	table  map[string]core.PortableFieldType
	legacy bool
}

// New returns a Mapper using the base table, with temporal types mapped to
// Date and intervals to String.
func New() *Mapper {
	return &Mapper{table: merge(baseTypes, temporalTypes)}
}

// NewLegacy returns a Mapper reproducing the historical Redshift table:
// temporal and interval types map to Boolean and INT2/INT4 map to String.
func NewLegacy() *Mapper {
	return &Mapper{table: merge(baseTypes, legacyTypes), legacy: true}
}

// With returns a copy of m extended with entries. Keys are normalised the
// same way Map normalises its input; later entries win.
//
// On a legacy Mapper the legacy table keeps precedence: its keys are not
// overridden, and entries for timestamp-like (Date other than DATE) or
// interval types map to Boolean.
func (m *Mapper) With(entries map[string]core.PortableFieldType) *Mapper {
	table := maps.Clone(m.table)
	for k, v := range entries {
		key := Normalize(k)
		if m.legacy {
			if _, ok := legacyTypes[key]; ok {
				continue
			}
			if (v == core.FieldDate && key != "DATE") || strings.HasPrefix(key, "INTERVAL") {
				v = core.FieldBoolean
			}
		}
		table[key] = v
	}
	return &Mapper{table: table, legacy: m.legacy}
}

// Map returns the portable type for a native type name. Unknown names map to String.
func (m *Mapper) Map(native string) core.PortableFieldType {
	if t, ok := m.table[Normalize(native)]; ok {
		return t
	}
	return core.FieldString
}

// Normalize reduces a native type name to its lookup key:
// "character varying(256)" becomes "CHARACTER VARYING".
func Normalize(native string) string {
	if i := strings.IndexByte(native, '('); i >= 0 {
		native = native[:i]
	}
	return strings.ToUpper(strings.Join(strings.Fields(native), " "))
}

func merge(tables ...map[string]core.PortableFieldType) map[string]core.PortableFieldType {
	out := make(map[string]core.PortableFieldType)
	for _, t := range tables {
		maps.Copy(out, t)
	}
	return out
}
