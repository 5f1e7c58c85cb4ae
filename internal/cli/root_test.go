package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapconnect/internal/cli/testutil"
	"github.com/leapstack-labs/leapconnect/pkg/adapter"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return testutil.ExecuteCommand(NewRootCmd(), args...)
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"version", "ping", "entities", "describe", "schema", "count", "query", "write", "completion"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "profile", "driver", "hostname", "port", "database", "username", "password", "schema", "output", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCommand_RegistersAdapters(t *testing.T) {
	for _, name := range []string{"postgres", "redshift", "mysql", "sqlserver", "sqlite", "duckdb", "hana", "snowflake"} {
		assert.True(t, adapter.IsRegistered(name), name)
	}
}

func TestRootCommand_EndToEnd(t *testing.T) {
	t.Chdir(t.TempDir())
	db := testutil.SetupTestDatabase(t)
	conn := testutil.SQLiteArgs(db)

	t.Run("ping", func(t *testing.T) {
		out, _, err := run(t, append([]string{"ping"}, conn...)...)
		require.NoError(t, err)
		assert.Equal(t, "ok (sqlite)\n", out)
	})

	t.Run("entities", func(t *testing.T) {
		out, _, err := run(t, append([]string{"entities", "-o", "json"}, conn...)...)
		require.NoError(t, err)
		testutil.AssertNoANSI(t, out)

		entities := decode[[]map[string]any](t, out)
		require.Len(t, entities, 2)
		assert.Equal(t, "customers", entities[0]["entityIdentifier"])
		assert.Equal(t, "orders", entities[1]["entityIdentifier"])
	})

	t.Run("describe", func(t *testing.T) {
		out, _, err := run(t, append([]string{"describe", "orders", "-o", "json"}, conn...)...)
		require.NoError(t, err)

		fields := decode[[]map[string]any](t, out)
		require.Len(t, fields, 4)
		assert.Equal(t, "id", fields[0]["fieldName"])
		assert.Equal(t, "Integer", fields[0]["dataType"])
		assert.Equal(t, "String", fields[2]["dataType"])
		assert.Equal(t, "Integer", fields[3]["dataType"])
	})

	t.Run("describe table output", func(t *testing.T) {
		out, _, err := run(t, append([]string{"describe", "customers", "-o", "table"}, conn...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "created_at")
		assert.Contains(t, out, "Date")
		assert.Contains(t, out, "(3 rows)")
	})

	t.Run("schema", func(t *testing.T) {
		out, _, err := run(t, append([]string{"schema", "-o", "json"}, conn...)...)
		require.NoError(t, err)

		schema := decode[map[string][]map[string]any](t, out)
		assert.Len(t, schema["customers"], 3)
		assert.Len(t, schema["orders"], 4)
	})

	t.Run("count with filter", func(t *testing.T) {
		out, _, err := run(t, append([]string{"count", "orders", "--filter", "status = 'OPEN'", "-o", "table"}, conn...)...)
		require.NoError(t, err)
		assert.Equal(t, "2\n", out)
	})

	t.Run("query first page", func(t *testing.T) {
		out, _, err := run(t, append([]string{"query", "orders", "--fields", "id,status", "--page-size", "2", "-o", "json"}, conn...)...)
		require.NoError(t, err)

		p := decode[struct {
			Records           []map[string]*string `json:"records"`
			ContinuationToken string               `json:"continuationToken"`
		}](t, out)
		require.Len(t, p.Records, 2)
		assert.Equal(t, "1", *p.Records[0]["id"])
		assert.Equal(t, "OPEN", *p.Records[0]["status"])
		assert.Equal(t, "2", p.ContinuationToken)
	})

	t.Run("query all pages", func(t *testing.T) {
		out, _, err := run(t, append([]string{"query", "customers", "--page-size", "1", "--all", "-o", "json"}, conn...)...)
		require.NoError(t, err)

		p := decode[struct {
			Records           []map[string]*string `json:"records"`
			ContinuationToken string               `json:"continuationToken"`
		}](t, out)
		require.Len(t, p.Records, 2)
		assert.Contains(t, p.Records[0], "id", "every described field is selected")
		assert.Equal(t, "Bob", *p.Records[1]["name"])
		assert.Nil(t, p.Records[1]["created_at"])
		assert.Empty(t, p.ContinuationToken)
	})

	t.Run("query rejects statement in filter", func(t *testing.T) {
		_, _, err := run(t, append([]string{"query", "orders", "--fields", "id", "--filter", "1=1; DROP TABLE orders"}, conn...)...)
		require.Error(t, err)
		assert.ErrorContains(t, err, "statement separators are not allowed")
		assert.Equal(t, 3, testutil.CountRows(t, db, "orders"))
	})

	t.Run("write from stdin", func(t *testing.T) {
		root := NewRootCmd()
		root.SetIn(strings.NewReader("{\"id\": 4, \"customer_id\": 2, \"status\": \"OPEN\"}\n\n{\"id\": 5, \"customer_id\": 1, \"status\": \"NEW\"}\n"))
		out, _, err := testutil.ExecuteCommand(root, append([]string{"write", "orders", "--operation", "insert", "-o", "json"}, conn...)...)
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 1}, decode[map[string][]int64](t, out)["counts"])
		assert.Equal(t, 5, testutil.CountRows(t, db, "orders"))
	})

	t.Run("write update from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "changes.jsonl")
		require.NoError(t, os.WriteFile(path, []byte("{\"id\": 4, \"status\": \"CLOSED\"}\n{\"id\": 99, \"status\": \"CLOSED\"}\n"), 0600))

		out, _, err := run(t, append([]string{"write", "orders", "--operation", "update", "--id", "id", "--file", path, "-o", "table"}, conn...)...)
		require.NoError(t, err)
		assert.Equal(t, "UPDATE: 2 records, 1 rows affected\n", out)
	})

	t.Run("write rejects unknown operation", func(t *testing.T) {
		_, _, err := run(t, append([]string{"write", "orders", "--operation", "merge"}, conn...)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported write operation")
	})
}

func TestRootCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	db := testutil.SetupTestDatabase(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leapconnect.yaml"),
		[]byte("credentials:\n  driver: sqlite\n  database: "+db+"\noutput: table\n"), 0600))

	out, _, err := run(t, "count", "customers")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestRootCommand_MetricsTextfile(t *testing.T) {
	t.Chdir(t.TempDir())
	db := testutil.SetupTestDatabase(t)
	textfile := filepath.Join(t.TempDir(), "leapconnect.prom")

	_, _, err := run(t, append([]string{"count", "orders", "--metrics-textfile", textfile}, testutil.SQLiteArgs(db)...)...)
	require.NoError(t, err)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leapconnect_operations_total")
}

func TestRootCommand_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "missing driver", args: []string{"entities"}, errSubstr: "credentials.driver is required"},
		{name: "unknown driver", args: []string{"entities", "--driver", "oracle"}, errSubstr: "unknown adapter type"},
		{name: "sqlite without database", args: []string{"entities", "--driver", "sqlite"}, errSubstr: "database"},
		{name: "bad output", args: []string{"entities", "--driver", "sqlite", "--database", "x.db", "-o", "xml"}, errSubstr: "output must be one of"},
		{name: "missing entity argument", args: []string{"describe", "--driver", "sqlite", "--database", "x.db"}, errSubstr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapconnect")
}
