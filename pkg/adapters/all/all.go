// Package all registers every built-in adapter and dialect.
//
//	import _ "github.com/leapstack-labs/leapconnect/pkg/adapters/all"
package all

import (
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/hana"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/redshift"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/snowflake"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/sqlite"
	_ "github.com/leapstack-labs/leapconnect/pkg/adapters/sqlserver"
)
