package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/core"
)

// PlaceholderStyle selects how bind markers are written.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2, ...
)

// Base provides the static parts of Adapter. Embed it in concrete adapters
// and implement DSN and the catalog queries.
type Base struct {
	AdapterName  string
	Driver       string
	DialectName  string
	ReadOnlyTx   bool
	Placeholders PlaceholderStyle
}

// Name returns the registry key.
func (b *Base) Name() string { return b.AdapterName }

// DriverName returns the database/sql driver name.
func (b *Base) DriverName() string { return b.Driver }

// Dialect returns the guard profile name.
func (b *Base) Dialect() string { return b.DialectName }

// SupportsReadOnlyTx reports whether read-only transactions are supported.
func (b *Base) SupportsReadOnlyTx() bool { return b.ReadOnlyTx }

// Placeholder returns the bind marker for the n-th argument.
func (b *Base) Placeholder(n int) string {
	if b.Placeholders == PlaceholderDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// ParseQualifiedName splits a table reference into schema and name.
// defaultSchema is used when the reference is unqualified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// InformationSchemaTables lists base tables through information_schema.
func InformationSchemaTables(a Adapter, schema string) (string, []any) {
	//nolint:gosec // placeholders come from the adapter
	query := fmt.Sprintf(`SELECT table_name AS table_name
FROM information_schema.tables
WHERE table_schema = %s AND table_type = 'BASE TABLE'
ORDER BY table_name`, a.Placeholder(1))
	return query, []any{schema}
}

// InformationSchemaColumns describes a table through information_schema,
// flagging primary key columns via table_constraints.
func InformationSchemaColumns(a Adapter, schema, table string) (string, []any) {
	//nolint:gosec // placeholders come from the adapter
	query := fmt.Sprintf(`SELECT
	c.column_name AS column_name,
	c.data_type AS data_type,
	c.is_nullable AS is_nullable,
	c.ordinal_position AS ordinal_position,
	CASE WHEN EXISTS (
		SELECT 1
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON tc.constraint_name = k.constraint_name
			AND tc.table_schema = k.table_schema
			AND tc.table_name = k.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND k.table_schema = c.table_schema
			AND k.table_name = c.table_name
			AND k.column_name = c.column_name
	) THEN 'YES' ELSE 'NO' END AS is_primary
FROM information_schema.columns c
WHERE c.table_schema = %s AND c.table_name = %s
ORDER BY c.ordinal_position`, a.Placeholder(1), a.Placeholder(2))
	return query, []any{schema, table}
}

// Open opens a database/sql handle for creds and verifies it with a ping.
func Open(ctx context.Context, a Adapter, creds core.Credentials) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName(), a.DSN(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", a.Name(), err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", a.Name(), err)
	}

	return db, nil
}
