// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"

	// sqlite driver for the fixture database.
	_ "modernc.org/sqlite"
)

const fixtureSchema = `
CREATE TABLE customers (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMP
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER NOT NULL,
	status VARCHAR(16),
	total NUMERIC(10,2)
);
INSERT INTO customers (id, name, created_at) VALUES
	(1, 'Alice', '2024-01-01 10:00:00'),
	(2, 'Bob', NULL);
INSERT INTO orders (id, customer_id, status, total) VALUES
	(1, 1, 'OPEN', 10.5),
	(2, 1, 'CLOSED', 3),
	(3, 2, 'OPEN', 7.25);
`

// SetupTestDatabase creates a SQLite database with customers and orders
// tables and returns its path.
func SetupTestDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(context.Background(), fixtureSchema); err != nil {
		t.Fatalf("failed to create fixture schema: %v", err)
	}
	return path
}

// SQLiteArgs returns the connection flags for a SQLite database at path.
func SQLiteArgs(path string) []string {
	return []string{"--driver", "sqlite", "--database", path}
}

// ExecuteCommand runs cmd with args and returns what it wrote to stdout and stderr.
func ExecuteCommand(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, path, table string) int {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRowContext(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
