package core

import (
	"fmt"
	"strings"
)

// PortableFieldType is the database-agnostic classification of a column.
type PortableFieldType int

const (
	// FieldString is the fallback for any unrecognised native type.
	FieldString PortableFieldType = iota
	// FieldInteger covers the numeric family (integers, decimals and floats).
	FieldInteger
	// FieldDate covers calendar and timestamp types.
	FieldDate
	// FieldBoolean covers boolean types.
	FieldBoolean
)

// String returns the enum name used at the host boundary.
func (t PortableFieldType) String() string {
	switch t {
	case FieldInteger:
		return "Integer"
	case FieldDate:
		return "Date"
	case FieldBoolean:
		return "Boolean"
	default:
		return "String"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t PortableFieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PortableFieldType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "integer":
		*t = FieldInteger
	case "date":
		*t = FieldDate
	case "boolean":
		*t = FieldBoolean
	case "string":
		*t = FieldString
	default:
		return fmt.Errorf("unknown field type %q", string(b))
	}
	return nil
}

// WriteOperation is a kind of DML a write request performs.
type WriteOperation string

const (
	OpInsert WriteOperation = "INSERT"
	OpUpsert WriteOperation = "UPSERT"
	OpUpdate WriteOperation = "UPDATE"
)

// SupportedWriteOperations is the operation list advertised on every field,
// in the order the catalog reports it.
var SupportedWriteOperations = []WriteOperation{OpUpsert, OpUpdate, OpInsert}

// ParseWriteOperation parses an operation name case-insensitively.
func ParseWriteOperation(s string) (WriteOperation, error) {
	op := WriteOperation(strings.ToUpper(strings.TrimSpace(s)))
	switch op {
	case OpInsert, OpUpsert, OpUpdate:
		return op, nil
	}
	return "", &InvalidInputError{Field: "operation", Reason: fmt.Sprintf("unsupported write operation %q", s)}
}

// Entity is one table exposed by the data source.
type Entity struct {
	EntityIdentifier  string `json:"entityIdentifier"`
	Label             string `json:"label"`
	Description       string `json:"description"`
	HasNestedEntities bool   `json:"hasNestedEntities"`
}

// NewEntity builds an entity whose label and description mirror the table name.
func NewEntity(name string) Entity {
	return Entity{
		EntityIdentifier: name,
		Label:            name,
		Description:      name,
	}
}

// ReadProperties describes how a field may be read.
type ReadProperties struct {
	IsQueryable   bool `json:"isQueryable"`
	IsRetrievable bool `json:"isRetrievable"`
}

// WriteProperties describes how a field may be written.
type WriteProperties struct {
	IsNullable               bool             `json:"isNullable"`
	IsUpdatable              bool             `json:"isUpdatable"`
	IsCreatable              bool             `json:"isCreatable"`
	SupportedWriteOperations []WriteOperation `json:"supportedWriteOperations"`
}

// FieldDefinition is one column of an entity.
type FieldDefinition struct {
	FieldName       string            `json:"fieldName"`
	DataType        PortableFieldType `json:"dataType"`
	DataTypeLabel   string            `json:"dataTypeLabel"`
	Label           string            `json:"label"`
	NativeType      string            `json:"nativeType"`
	ReadProperties  ReadProperties    `json:"readProperties"`
	WriteProperties WriteProperties   `json:"writeProperties"`
}
