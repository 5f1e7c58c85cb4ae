package core

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MySQL, SQLite, DuckDB, HANA, Snowflake).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL, Redshift).
	PlaceholderDollar
	// PlaceholderAtP uses @p1, @p2, etc. for parameters (SQL Server).
	PlaceholderAtP
)

// IdentifierConfig defines how identifiers are quoted.
type IdentifierConfig struct {
	Quote    string // Quote character: ", `, [
	QuoteEnd string // End quote character (usually same as Quote, ] for [)
	Escape   string // Escape sequence: "", ``, ]]
}

// PaginationStyle selects how a page window is rendered after the WHERE clause.
type PaginationStyle int

const (
	// PaginateOffsetLimit renders OFFSET n LIMIT m (PostgreSQL, Redshift).
	PaginateOffsetLimit PaginationStyle = iota
	// PaginateLimitOffset renders LIMIT m OFFSET n.
	PaginateLimitOffset
	// PaginateOffsetFetch renders ORDER BY (SELECT NULL) OFFSET n ROWS FETCH NEXT m ROWS ONLY.
	PaginateOffsetFetch
)

// UpsertStyle selects the statement shape used for keyed upserts.
type UpsertStyle int

const (
	// UpsertOnConflict renders INSERT ... ON CONFLICT (keys) DO UPDATE SET c = EXCLUDED.c.
	UpsertOnConflict UpsertStyle = iota
	// UpsertOnDuplicateKey renders INSERT ... ON DUPLICATE KEY UPDATE c = VALUES(c).
	UpsertOnDuplicateKey
	// UpsertMerge renders MERGE INTO target USING (SELECT ...) AS source ON keys.
	UpsertMerge
	// UpsertValuesWhere renders UPSERT target (...) VALUES (...) WHERE keys.
	UpsertValuesWhere
	// UpsertDeleteInsert renders a keyed DELETE followed by an INSERT.
	UpsertDeleteInsert
)
