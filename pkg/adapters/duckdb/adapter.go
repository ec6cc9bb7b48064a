// Package duckdb provides a DuckDB adapter for local analytical files.
package duckdb

import (
	"net/url"

	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements adapter.Adapter for DuckDB.
// Credentials.Database holds the database file path; host, port and account
// are unused but still take part in the fingerprint.
type Adapter struct {
	adapter.Base
}

// New creates a new DuckDB adapter.
func New() *Adapter {
	return &Adapter{
		Base: adapter.Base{
			AdapterName:  "duckdb",
			Driver:       "duckdb",
			DialectName:  guard.ProfilePermissive,
			ReadOnlyTx:   false,
			Placeholders: adapter.PlaceholderQuestion,
		},
	}
}

// DSN returns the database path followed by options as config parameters
// (e.g. threads=4). Files are opened with access_mode=READ_ONLY unless the
// options set it. An empty path is in-memory.
func (a *Adapter) DSN(creds core.Credentials) string {
	q := url.Values{}
	for k, v := range creds.Options {
		q.Set(k, v)
	}

	path := creds.Database
	if path == "" || path == ":memory:" {
		if len(q) == 0 {
			return ":memory:"
		}
		return ":memory:?" + q.Encode()
	}

	if q.Get("access_mode") == "" {
		q.Set("access_mode", "READ_ONLY")
	}
	return path + "?" + q.Encode()
}

// DefaultSchema returns "main".
func (a *Adapter) DefaultSchema(string) string {
	return "main"
}

// TablesQuery lists base tables of schema.
func (a *Adapter) TablesQuery(schema string) (string, []any) {
	return adapter.InformationSchemaTables(a, schema)
}

// ColumnsQuery describes a table.
func (a *Adapter) ColumnsQuery(schema, table string) (string, []any) {
	return adapter.InformationSchemaColumns(a, schema, table)
}
