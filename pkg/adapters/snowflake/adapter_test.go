package snowflake

import (
	"testing"

	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnowflakeDSN(t *testing.T) {
	dsn, err := buildSnowflakeDSN(core.Credentials{
		Hostname: "XY12345.snowflakecomputing.com",
		Database: "ANALYTICS",
		Username: "loader",
		Password: "secret",
		Schema:   "RAW",
		Options:  map[string]string{"warehouse": "LOAD_WH", "role": "LOADER"},
	})
	require.NoError(t, err)

	cfg, err := gosnowflake.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "xy12345", cfg.Account)
	assert.Equal(t, "loader", cfg.User)
	assert.Equal(t, "ANALYTICS", cfg.Database)
	assert.Equal(t, "RAW", cfg.Schema)
	assert.Equal(t, "LOAD_WH", cfg.Warehouse)
	assert.Equal(t, "LOADER", cfg.Role)
}

func TestDiagnose(t *testing.T) {
	a := New(nil)
	attrs := a.Diagnose(&gosnowflake.SnowflakeError{Number: 2003, SQLState: "02000", QueryID: "01a2"})
	require.Len(t, attrs, 3)
	assert.Equal(t, int64(2003), attrs[0].Value.Int64())
	assert.Equal(t, "01a2", attrs[2].Value.String())
	assert.Nil(t, a.Diagnose(assert.AnError))
}
