// Package adapter defines the contract between the plan executor and a
// relational engine.
//
// An adapter does not hold connections. It knows how to reach an engine
// (driver name and DSN), which dialect profile guards statements for it,
// whether it accepts read-only transactions and how to query its catalog.
// Pools are owned by pkg/pool.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init().
package adapter

import "github.com/leapstack-labs/leapplan/pkg/core"

// Adapter describes one engine.
type Adapter interface {
	// Name is the registry key (e.g. "mysql").
	Name() string

	// DriverName is the database/sql driver to open.
	DriverName() string

	// DSN builds the driver connection string. The password is included,
	// so the result must never be logged.
	DSN(creds core.Credentials) string

	// Dialect names the guard profile applied to statements for this engine.
	Dialect() string

	// SupportsReadOnlyTx reports whether BeginTx accepts ReadOnly: true.
	SupportsReadOnlyTx() bool

	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// DefaultSchema returns the schema used when a table name is unqualified.
	DefaultSchema(database string) string

	// TablesQuery lists base tables of schema. Rows carry a table_name column.
	TablesQuery(schema string) (string, []any)

	// ColumnsQuery describes table. Rows carry column_name, data_type,
	// is_nullable, ordinal_position and is_primary columns.
	ColumnsQuery(schema, table string) (string, []any)
}
