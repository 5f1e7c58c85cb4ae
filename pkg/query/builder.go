// Package query renders and runs paginated reads and record counts.
package query

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

// Builder renders read statements for one dialect.
type Builder struct {
	Dialect *dialect.Dialect
	Schema  string // qualifies unqualified entities; empty leaves them to the session
}

// NewBuilder creates a builder for d.
func NewBuilder(d *dialect.Dialect) *Builder {
	return &Builder{Dialect: d}
}

// BuildCount renders SELECT COUNT(*) AS cnt FROM <entity> [WHERE <filter>].
func (b *Builder) BuildCount(req core.QueryRequest) (core.Statement, error) {
	from, err := b.from(req)
	if err != nil {
		return core.Statement{}, err
	}
	return core.Statement{SQL: "SELECT COUNT(*) AS cnt " + from}, nil
}

// BuildSelect renders the page of req. Pagination is appended only when
// PageSize is set; the continuation token is the row offset.
func (b *Builder) BuildSelect(req core.QueryRequest) (core.Statement, error) {
	if len(req.SelectedFieldNames) == 0 {
		return core.Statement{}, &core.InvalidInputError{Field: "selectedFieldNames", Reason: "at least one field is required"}
	}
	cols := make([]string, len(req.SelectedFieldNames))
	for i, name := range req.SelectedFieldNames {
		if err := dialect.ValidateIdentifier("selectedFieldNames", name); err != nil {
			return core.Statement{}, err
		}
		cols[i] = b.Dialect.QuoteIdentifier(name)
	}

	from, err := b.from(req)
	if err != nil {
		return core.Statement{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" ")
	sb.WriteString(from)

	if req.PageSize < 0 {
		return core.Statement{}, &core.InvalidInputError{Field: "pageSize", Reason: "must be positive"}
	}
	if req.PageSize > 0 {
		offset, err := req.Offset()
		if err != nil {
			return core.Statement{}, err
		}
		sb.WriteString(" ")
		sb.WriteString(b.Dialect.Paginate(offset, int64(req.PageSize)))
	} else if req.ContinuationToken != "" {
		if _, err := req.Offset(); err != nil {
			return core.Statement{}, err
		}
	}
	return core.Statement{SQL: sb.String()}, nil
}

func (b *Builder) from(req core.QueryRequest) (string, error) {
	if err := dialect.ValidateIdentifier("entityIdentifier", req.EntityIdentifier); err != nil {
		return "", err
	}
	from := "FROM " + b.Dialect.QuoteTable(req.EntityIdentifier, b.Schema)

	filter := strings.TrimSpace(req.FilterExpression)
	if filter == "" {
		return from, nil
	}
	if err := ValidateFilter(filter); err != nil {
		return "", err
	}
	return from + " WHERE " + filter, nil
}

// Keywords that have no place in a row predicate.
var forbiddenKeywords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE|UPSERT|DROP|CREATE|ALTER|TRUNCATE|GRANT|REVOKE|EXEC|EXECUTE|CALL|COPY|UNLOAD|ATTACH|DETACH|PRAGMA|VACUUM|INTO)\b`)

// ValidateFilter screens an opaque filter predicate. Statement separators,
// comments and DDL/DML keywords outside string literals and quoted
// identifiers are rejected; the predicate is otherwise passed through untouched.
func ValidateFilter(filter string) error {
	bare, open := blankQuoted(filter)
	switch open {
	case '\'':
		return &core.InvalidInputError{Field: "filterExpression", Reason: "unterminated string literal"}
	case '"', '`':
		return &core.InvalidInputError{Field: "filterExpression", Reason: "unterminated quoted identifier"}
	}

	switch {
	case strings.Contains(bare, ";"):
		return &core.InvalidInputError{Field: "filterExpression", Reason: "statement separators are not allowed"}
	case strings.Contains(bare, "--"), strings.Contains(bare, "/*"), strings.Contains(bare, "*/"):
		return &core.InvalidInputError{Field: "filterExpression", Reason: "comments are not allowed"}
	}
	if kw := forbiddenKeywords.FindString(bare); kw != "" {
		return &core.InvalidInputError{Field: "filterExpression", Reason: "keyword " + strings.ToUpper(kw) + " is not allowed"}
	}
	return nil
}

// blankQuoted empties every '...' literal and "..." or `...` identifier,
// honouring doubled-quote escapes. open is the quote left unterminated, or 0.
func blankQuoted(s string) (bare string, open byte) {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		q := s[i]
		if q != '\'' && q != '"' && q != '`' {
			sb.WriteByte(q)
			continue
		}
		end := -1
		for j := i + 1; j < len(s); j++ {
			if s[j] != q {
				continue
			}
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			end = j
			break
		}
		if end < 0 {
			return "", q
		}
		sb.WriteByte(q)
		sb.WriteByte(q)
		i = end
	}
	return sb.String(), 0
}
