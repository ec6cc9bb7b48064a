// Package mysql provides the MySQL adapter, the default engine.
package mysql

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"
)

// DefaultPort is used when credentials leave the port unset.
const DefaultPort = 3306

// Adapter implements adapter.Adapter for MySQL.
type Adapter struct {
	adapter.Base
}

// New creates a new MySQL adapter.
func New() *Adapter {
	return &Adapter{
		Base: adapter.Base{
			AdapterName:  "mysql",
			Driver:       "mysql",
			DialectName:  guard.ProfileMySQL,
			ReadOnlyTx:   true,
			Placeholders: adapter.PlaceholderQuestion,
		},
	}
}

// DSN builds a go-sql-driver DSN. Options are passed as connection params.
func (a *Adapter) DSN(creds core.Credentials) string {
	return buildMySQLDSN(creds)
}

func buildMySQLDSN(creds core.Credentials) string {
	host := creds.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := creds.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = creds.Database
	cfg.ParseTime = true
	if len(creds.Options) > 0 {
		cfg.Params = make(map[string]string, len(creds.Options))
		for k, v := range creds.Options {
			cfg.Params[k] = v
		}
	}

	return cfg.FormatDSN()
}

// DefaultSchema returns the database name; MySQL schemas are databases.
func (a *Adapter) DefaultSchema(database string) string {
	return database
}

// TablesQuery lists base tables of schema.
func (a *Adapter) TablesQuery(schema string) (string, []any) {
	return adapter.InformationSchemaTables(a, schema)
}

// ColumnsQuery describes a table.
func (a *Adapter) ColumnsQuery(schema, table string) (string, []any) {
	return adapter.InformationSchemaColumns(a, schema, table)
}
