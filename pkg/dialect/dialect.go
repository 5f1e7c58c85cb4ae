// Package dialect provides SQL dialect configuration for statement synthesis.
//
// A Dialect is pure data plus small rendering helpers: identifier quoting,
// parameter placeholders, catalog queries, pagination and upsert shape.
// Concrete dialects are registered from pkg/adapters/*/dialect packages,
// which carry no database driver dependencies.
package dialect

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// MaxIdentifierLength bounds entity and field names accepted for quoting.
const MaxIdentifierLength = 128

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// Database-specific settings
	DefaultSchema      string                // Default schema name ("public" for Postgres, "dbo" for SQL Server)
	SchemaFromDatabase bool                  // Schema defaults to the database name (MySQL)
	Placeholder        core.PlaceholderStyle // How to format query parameters
	Pagination         core.PaginationStyle  // How to render a page window
	Upsert             core.UpsertStyle      // How to render a keyed upsert

	// Catalog queries. listTables yields one column (table name); describe
	// yields column name, native type and 'YES'/'NO' nullability in ordinal order.
	listTables    string
	describe      string
	catalogSchema bool // catalog queries take the schema as their first argument

	types map[string]core.PortableFieldType
}

// FormatPlaceholder returns the placeholder for the given 1-based parameter index.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	case core.PlaceholderAtP:
		return "@p" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteTable quotes a possibly schema-qualified table reference:
// "sales.orders" becomes "sales"."orders". An unqualified name is qualified
// with schema unless schema is empty or the dialect default.
func (d *Dialect) QuoteTable(name, schema string) string {
	qualifier, table := SplitQualified(name)
	if qualifier == "" && schema != d.DefaultSchema {
		qualifier = schema
	}
	if qualifier == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(qualifier) + "." + d.QuoteIdentifier(table)
}

// SplitQualified splits a table reference into schema and name.
// The schema is empty when the reference is unqualified.
func SplitQualified(name string) (schema, table string) {
	if parts := strings.SplitN(name, ".", 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1]
	}
	return "", name
}

// ValidateIdentifier rejects names that cannot be safely quoted.
func ValidateIdentifier(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return &core.InvalidInputError{Field: kind, Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(name) > MaxIdentifierLength {
		return &core.InvalidInputError{Field: kind, Reason: fmt.Sprintf("exceeds %d characters", MaxIdentifierLength)}
	}
	if !utf8.ValidString(name) {
		return &core.InvalidInputError{Field: kind, Reason: "is not valid UTF-8"}
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return &core.InvalidInputError{Field: kind, Reason: "contains control characters"}
		}
	}
	return nil
}

// Paginate renders the page window clause for the dialect.
func (d *Dialect) Paginate(offset, limit int64) string {
	o := strconv.FormatInt(offset, 10)
	l := strconv.FormatInt(limit, 10)
	switch d.Pagination {
	case core.PaginateLimitOffset:
		return "LIMIT " + l + " OFFSET " + o
	case core.PaginateOffsetFetch:
		return "ORDER BY (SELECT NULL) OFFSET " + o + " ROWS FETCH NEXT " + l + " ROWS ONLY"
	default: // PaginateOffsetLimit
		return "OFFSET " + o + " LIMIT " + l
	}
}

// ResolveSchema picks the schema used for catalog lookups.
func (d *Dialect) ResolveSchema(creds core.Credentials) string {
	if creds.Schema != "" {
		return creds.Schema
	}
	if d.SchemaFromDatabase {
		return creds.Database
	}
	return d.DefaultSchema
}

// ListTablesQuery returns the catalog query listing base tables and its arguments.
func (d *Dialect) ListTablesQuery(schema string) (string, []any) {
	if !d.catalogSchema {
		return d.listTables, nil
	}
	return d.listTables, []any{schema}
}

// DescribeQuery returns the catalog query describing a table's columns and its arguments.
// A schema qualifier on table overrides schema.
func (d *Dialect) DescribeQuery(schema, table string) (string, []any) {
	if s, t := SplitQualified(table); s != "" {
		schema, table = s, t
	}
	if !d.catalogSchema {
		return d.describe, []any{table}
	}
	return d.describe, []any{schema, table}
}

// Types returns the dialect's additional native type mappings.
func (d *Dialect) Types() map[string]core.PortableFieldType {
	return maps.Clone(d.types)
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:    `"`,
				QuoteEnd: `"`,
				Escape:   `""`,
			},
			catalogSchema: true,
			types:         make(map[string]core.PortableFieldType),
		},
	}
}

// Identifiers configures identifier quoting.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:    quote,
		QuoteEnd: quoteEnd,
		Escape:   escape,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// SchemaFromDatabase makes the database name the default schema.
func (b *Builder) SchemaFromDatabase() *Builder {
	b.dialect.SchemaFromDatabase = true
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// Pagination sets how page windows are rendered.
func (b *Builder) Pagination(style core.PaginationStyle) *Builder {
	b.dialect.Pagination = style
	return b
}

// Upsert sets how keyed upserts are rendered.
func (b *Builder) Upsert(style core.UpsertStyle) *Builder {
	b.dialect.Upsert = style
	return b
}

// Catalog sets the catalog queries. Both take the schema as the first
// parameter; describe takes the table name as the second.
func (b *Builder) Catalog(listTables, describe string) *Builder {
	b.dialect.listTables = listTables
	b.dialect.describe = describe
	b.dialect.catalogSchema = true
	return b
}

// CatalogWithoutSchema sets catalog queries for engines without schemas.
// listTables takes no parameters; describe takes the table name.
func (b *Builder) CatalogWithoutSchema(listTables, describe string) *Builder {
	b.dialect.listTables = listTables
	b.dialect.describe = describe
	b.dialect.catalogSchema = false
	return b
}

// Types registers native type mappings on top of the base table.
func (b *Builder) Types(types map[string]core.PortableFieldType) *Builder {
	maps.Copy(b.dialect.types, types)
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
