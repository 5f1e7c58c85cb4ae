package duckdb

// Params holds DuckDB-specific configuration.
// Parsed from core.Credentials.Options using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json"), comma separated
	Extensions []string `mapstructure:"extensions"`

	// Settings are passed through as DSN parameters (e.g., threads, access_mode)
	Settings map[string]string `mapstructure:",remain"`
}
