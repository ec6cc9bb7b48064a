// Package postgres provides a PostgreSQL adapter backed by pgx.
package postgres

import (
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"
)

// Adapter implements adapter.Adapter for PostgreSQL.
type Adapter struct {
	adapter.Base
}

// New creates a new PostgreSQL adapter.
func New() *Adapter {
	return &Adapter{
		Base: adapter.Base{
			AdapterName:  "postgres",
			Driver:       "pgx",
			DialectName:  guard.ProfilePermissive,
			ReadOnlyTx:   true,
			Placeholders: adapter.PlaceholderDollar,
		},
	}
}

// DSN builds a key=value connection string.
func (a *Adapter) DSN(creds core.Credentials) string {
	return buildPostgresDSN(creds)
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(creds core.Credentials) string {
	host := creds.Host
	if host == "" {
		host = "localhost"
	}

	port := creds.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := creds.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		quoteValue(host), port, quoteValue(creds.Database), quoteValue(sslmode))

	if creds.User != "" {
		dsn += " user=" + quoteValue(creds.User)
	}
	if creds.Password != "" {
		dsn += " password=" + quoteValue(creds.Password)
	}

	// remaining options in a stable order
	keys := make([]string, 0, len(creds.Options))
	for k := range creds.Options {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		dsn += fmt.Sprintf(" %s=%s", k, quoteValue(creds.Options[k]))
	}

	return dsn
}

// quoteValue single-quotes v when it is empty or holds characters that end
// a bare value.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// DefaultSchema returns "public".
func (a *Adapter) DefaultSchema(string) string {
	return "public"
}

// TablesQuery lists base tables of schema.
func (a *Adapter) TablesQuery(schema string) (string, []any) {
	return adapter.InformationSchemaTables(a, schema)
}

// ColumnsQuery describes a table.
func (a *Adapter) ColumnsQuery(schema, table string) (string, []any) {
	return adapter.InformationSchemaColumns(a, schema, table)
}
