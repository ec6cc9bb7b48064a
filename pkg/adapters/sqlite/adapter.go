// Package sqlite provides a SQLite adapter on the pure-Go modernc driver.
package sqlite

import (
	"net/url"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"

	_ "modernc.org/sqlite" // sqlite driver
)

const memoryPath = ":memory:"

// Adapter implements adapter.Adapter for SQLite.
type Adapter struct {
	adapter.Base
}

// New creates a new SQLite adapter.
func New() *Adapter {
	return &Adapter{
		Base: adapter.Base{
			AdapterName:  "sqlite",
			Driver:       "sqlite",
			DialectName:  guard.ProfilePermissive,
			ReadOnlyTx:   false,
			Placeholders: adapter.PlaceholderQuestion,
		},
	}
}

// DSN returns a URI filename. Files are opened read-only unless the
// options set mode explicitly.
func (a *Adapter) DSN(creds core.Credentials) string {
	q := url.Values{}
	for k, v := range creds.Options {
		q.Set(k, v)
	}

	path := creds.Database
	if path == "" || path == memoryPath {
		if len(q) == 0 {
			return memoryPath
		}
		return memoryPath + "?" + q.Encode()
	}

	if q.Get("mode") == "" {
		q.Set("mode", "ro")
	}
	return "file:" + escapePath(path) + "?" + q.Encode()
}

// escapePath percent-encodes each segment so '?', '#' and '%' in a file
// name cannot end the path part of the URI.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// DefaultSchema returns "main".
func (a *Adapter) DefaultSchema(string) string {
	return "main"
}

// TablesQuery lists user tables of schema.
func (a *Adapter) TablesQuery(schema string) (string, []any) {
	return `SELECT name AS table_name
FROM pragma_table_list
WHERE schema = ? AND type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`, []any{schema}
}

// ColumnsQuery describes a table.
func (a *Adapter) ColumnsQuery(schema, table string) (string, []any) {
	return `SELECT
	name AS column_name,
	type AS data_type,
	CASE WHEN "notnull" = 0 AND pk = 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
	cid + 1 AS ordinal_position,
	CASE WHEN pk > 0 THEN 'YES' ELSE 'NO' END AS is_primary
FROM pragma_table_info(?, ?)
ORDER BY cid`, []any{table, schema}
}
