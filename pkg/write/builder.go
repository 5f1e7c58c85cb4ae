// Package write turns batches of JSON records into INSERT, UPDATE and
// keyed upsert statements and submits them as one batch.
package write

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/leapstack-labs/leapconnect/pkg/dialect"
)

// Builder renders write statements for one dialect.
// All values are bound parameters.
type Builder struct {
	Dialect *dialect.Dialect
	Schema  string // qualifies unqualified entities; empty leaves them to the session
}

// NewBuilder creates a builder for d.
func NewBuilder(d *dialect.Dialect) *Builder {
	return &Builder{Dialect: d}
}

// Plan is the statement batch for a write request. Counted holds, per
// record, the index of the statement whose affected-row count is reported.
type Plan struct {
	Statements []core.Statement
	Counted    []int
}

// RecordCounts projects per-statement counts onto records.
func (p *Plan) RecordCounts(counts []int64) []int64 {
	out := make([]int64, len(p.Counted))
	for i, idx := range p.Counted {
		if idx < len(counts) {
			out[i] = counts[idx]
		}
	}
	return out
}

// Build validates req and renders its statements in record order.
func (b *Builder) Build(req core.WriteRequest) ([]core.Statement, error) {
	plan, err := b.Plan(req)
	if err != nil {
		return nil, err
	}
	return plan.Statements, nil
}

// Plan validates req and renders its statements. Any invalid record fails
// the whole request.
func (b *Builder) Plan(req core.WriteRequest) (*Plan, error) {
	if err := b.validate(req); err != nil {
		return nil, err
	}

	plan := &Plan{
		Statements: make([]core.Statement, 0, len(req.Records)),
		Counted:    make([]int, 0, len(req.Records)),
	}
	for n, doc := range req.Records {
		rec, err := parseRecord(n, doc)
		if err != nil {
			return nil, err
		}
		stmts, err := b.render(req, n, rec)
		if err != nil {
			return nil, err
		}
		plan.Statements = append(plan.Statements, stmts...)
		plan.Counted = append(plan.Counted, len(plan.Statements)-1)
	}
	return plan, nil
}

func (b *Builder) validate(req core.WriteRequest) error {
	if err := dialect.ValidateIdentifier("entityIdentifier", req.EntityIdentifier); err != nil {
		return err
	}
	op, err := core.ParseWriteOperation(string(req.Operation))
	if err != nil {
		return err
	}
	switch op {
	case core.OpUpdate:
		if len(req.IDFieldNames) != 1 {
			return &core.InvalidInputError{Field: "idFieldNames", Reason: "UPDATE requires exactly one id field"}
		}
	case core.OpUpsert:
		if len(req.IDFieldNames) == 0 {
			return &core.InvalidInputError{Field: "idFieldNames", Reason: "UPSERT requires at least one id field"}
		}
	}
	for _, id := range req.IDFieldNames {
		if err := dialect.ValidateIdentifier("idFieldNames", id); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) render(req core.WriteRequest, n int, rec *record) ([]core.Statement, error) {
	if len(rec.fields) == 0 {
		return nil, recordError(n, "has no fields")
	}
	for _, f := range rec.fields {
		if err := dialect.ValidateIdentifier(fmt.Sprintf("records[%d] field", n), f.name); err != nil {
			return nil, err
		}
	}

	op, _ := core.ParseWriteOperation(string(req.Operation))
	switch op {
	case core.OpUpdate:
		return b.update(req, n, rec)
	case core.OpUpsert:
		return b.upsert(req, n, rec)
	default:
		if err := requireValues(n, rec.fields); err != nil {
			return nil, err
		}
		return []core.Statement{b.insert(req.EntityIdentifier, rec.fields)}, nil
	}
}

func (b *Builder) insert(entity string, fields []field) core.Statement {
	args := &argList{d: b.Dialect}
	cols := make([]string, len(fields))
	phs := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.Dialect.QuoteIdentifier(f.name)
		phs[i] = args.add(f.value)
	}
	return core.Statement{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			b.table(entity), strings.Join(cols, ", "), strings.Join(phs, ", ")),
		Args: args.values,
	}
}

func (b *Builder) update(req core.WriteRequest, n int, rec *record) ([]core.Statement, error) {
	keys, _, err := splitKeys(n, rec, req.IDFieldNames)
	if err != nil {
		return nil, err
	}
	if err := requireValues(n, rec.fields); err != nil {
		return nil, err
	}

	// SET covers every record field, the id included, so an id-only record
	// is a valid no-op update reporting its matched rows.
	args := &argList{d: b.Dialect}
	sets := make([]string, len(rec.fields))
	for i, f := range rec.fields {
		sets[i] = b.Dialect.QuoteIdentifier(f.name) + " = " + args.add(f.value)
	}
	where := b.keyPredicate(keys, args)

	return []core.Statement{{
		SQL: fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			b.table(req.EntityIdentifier), strings.Join(sets, ", "), where),
		Args: args.values,
	}}, nil
}

func (b *Builder) upsert(req core.WriteRequest, n int, rec *record) ([]core.Statement, error) {
	keys, rest, err := splitKeys(n, rec, req.IDFieldNames)
	if err != nil {
		return nil, err
	}
	if err := requireValues(n, rest); err != nil {
		return nil, err
	}

	d := b.Dialect
	table := b.table(req.EntityIdentifier)

	switch d.Upsert {
	case core.UpsertOnDuplicateKey:
		stmt := b.insert(req.EntityIdentifier, rec.fields)
		sets := make([]string, 0, len(rest))
		for _, f := range rest {
			c := d.QuoteIdentifier(f.name)
			sets = append(sets, c+" = VALUES("+c+")")
		}
		if len(sets) == 0 {
			c := d.QuoteIdentifier(keys[0].name)
			sets = append(sets, c+" = "+c)
		}
		stmt.SQL += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
		return []core.Statement{stmt}, nil

	case core.UpsertMerge:
		return []core.Statement{b.merge(table, rec.fields, keys, rest)}, nil

	case core.UpsertValuesWhere:
		stmt := b.insert(req.EntityIdentifier, rec.fields)
		args := &argList{d: d, values: stmt.Args}
		stmt.SQL = "UPSERT" + strings.TrimPrefix(stmt.SQL, "INSERT INTO") + " WHERE " + b.keyPredicate(keys, args)
		stmt.Args = args.values
		return []core.Statement{stmt}, nil

	case core.UpsertDeleteInsert:
		args := &argList{d: d}
		del := core.Statement{
			SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s", table, b.keyPredicate(keys, args)),
			Args: args.values,
		}
		return []core.Statement{del, b.insert(req.EntityIdentifier, rec.fields)}, nil

	default: // UpsertOnConflict
		stmt := b.insert(req.EntityIdentifier, rec.fields)
		conflict := make([]string, len(keys))
		for i, k := range keys {
			conflict[i] = d.QuoteIdentifier(k.name)
		}
		stmt.SQL += " ON CONFLICT (" + strings.Join(conflict, ", ") + ")"
		if len(rest) == 0 {
			stmt.SQL += " DO NOTHING"
			return []core.Statement{stmt}, nil
		}
		sets := make([]string, len(rest))
		for i, f := range rest {
			c := d.QuoteIdentifier(f.name)
			sets[i] = c + " = EXCLUDED." + c
		}
		stmt.SQL += " DO UPDATE SET " + strings.Join(sets, ", ")
		return []core.Statement{stmt}, nil
	}
}

// merge renders MERGE INTO ... USING (SELECT ...) keyed by the id fields.
func (b *Builder) merge(table string, fields, keys, rest []field) core.Statement {
	d := b.Dialect
	args := &argList{d: d}

	src := make([]string, len(fields))
	cols := make([]string, len(fields))
	vals := make([]string, len(fields))
	for i, f := range fields {
		c := d.QuoteIdentifier(f.name)
		src[i] = args.add(f.value) + " AS " + c
		cols[i] = c
		vals[i] = "src." + c
	}
	on := make([]string, len(keys))
	for i, k := range keys {
		c := d.QuoteIdentifier(k.name)
		on[i] = "tgt." + c + " = src." + c
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "MERGE INTO %s AS tgt USING (SELECT %s) AS src ON %s",
		table, strings.Join(src, ", "), strings.Join(on, " AND "))
	if len(rest) > 0 {
		sets := make([]string, len(rest))
		for i, f := range rest {
			c := d.QuoteIdentifier(f.name)
			sets[i] = "tgt." + c + " = src." + c
		}
		sb.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
	}
	fmt.Fprintf(&sb, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		strings.Join(cols, ", "), strings.Join(vals, ", "))

	return core.Statement{SQL: sb.String(), Args: args.values}
}

func (b *Builder) table(entity string) string {
	return b.Dialect.QuoteTable(entity, b.Schema)
}

// keyPredicate renders "k1 = ? AND k2 = ?" binding the key values.
func (b *Builder) keyPredicate(keys []field, args *argList) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = b.Dialect.QuoteIdentifier(k.name) + " = " + args.add(k.value)
	}
	return strings.Join(parts, " AND ")
}

// splitKeys separates the id fields, in idFieldNames order, from the rest
// of the record, in document order.
func splitKeys(n int, rec *record, ids []string) (keys, rest []field, err error) {
	isKey := make(map[string]bool, len(ids))
	for _, id := range ids {
		f, ok := rec.lookup(id)
		if !ok {
			return nil, nil, recordError(n, fmt.Sprintf("is missing id field %q", id))
		}
		if f.null {
			return nil, nil, recordError(n, fmt.Sprintf("id field %q is null", id))
		}
		isKey[id] = true
		keys = append(keys, f)
	}
	for _, f := range rec.fields {
		if !isKey[f.name] {
			rest = append(rest, f)
		}
	}
	return keys, rest, nil
}

func requireValues(n int, fields []field) error {
	for _, f := range fields {
		if f.null {
			return recordError(n, fmt.Sprintf("field %q is null", f.name))
		}
	}
	return nil
}

// argList numbers placeholders as values are bound.
type argList struct {
	d      *dialect.Dialect
	values []any
}

func (a *argList) add(v *string) string {
	if v == nil {
		a.values = append(a.values, nil)
	} else {
		a.values = append(a.values, *v)
	}
	return a.d.FormatPlaceholder(len(a.values))
}
