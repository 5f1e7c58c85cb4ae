package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapconnect/internal/cli/config"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// resolveOutput turns the auto mode into table for terminals and json otherwise.
func resolveOutput(mode string, w io.Writer) string {
	if mode != config.OutputAuto {
		return mode
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return config.OutputTable
	}
	return config.OutputJSON
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row(header))
	return t
}

func renderEntities(w io.Writer, format string, entities []core.Entity) error {
	if format == config.OutputJSON {
		return renderJSON(w, entities)
	}
	if len(entities) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	t := newTable(w, "Entity", "Label")
	for _, e := range entities {
		t.AppendRow(table.Row{e.EntityIdentifier, e.Label})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(entities))
	return nil
}

func renderFields(w io.Writer, format string, fields []core.FieldDefinition) error {
	if format == config.OutputJSON {
		return renderJSON(w, fields)
	}
	t := newTable(w, "Field", "Type", "Native", "Nullable")
	for _, f := range fields {
		t.AppendRow(table.Row{f.FieldName, f.DataType, f.NativeType, f.WriteProperties.IsNullable})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(fields))
	return nil
}

func renderSchema(w io.Writer, format string, schema map[string][]core.FieldDefinition) error {
	if format == config.OutputJSON {
		return renderJSON(w, schema)
	}
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		_, _ = fmt.Fprintln(w, name)
		if err := renderFields(w, format, schema[name]); err != nil {
			return err
		}
	}
	return nil
}

// page is one query result as printed in json mode.
type page struct {
	Records           []core.Record `json:"records"`
	ContinuationToken string        `json:"continuationToken,omitempty"`
}

func renderRecords(w io.Writer, format string, fields []string, p page) error {
	if format == config.OutputJSON {
		return renderJSON(w, p)
	}
	if len(fields) == 0 {
		fields = recordKeys(p.Records)
	}
	if len(p.Records) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	header := make([]any, len(fields))
	for i, f := range fields {
		header[i] = f
	}
	t := newTable(w, header...)
	for _, rec := range p.Records {
		row := make(table.Row, len(fields))
		for i, f := range fields {
			row[i] = formatValue(rec[f])
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(p.Records))
	if p.ContinuationToken != "" {
		_, _ = fmt.Fprintf(w, "next token: %s\n", p.ContinuationToken)
	}
	return nil
}

func recordKeys(records []core.Record) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func formatValue(v *string) string {
	if v == nil {
		return "NULL"
	}
	return strings.ReplaceAll(*v, "\n", `\n`)
}
