package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_DSN(t *testing.T) {
	tests := []struct {
		name     string
		creds    core.Credentials
		expected string
	}{
		{"in-memory", core.Credentials{}, ":memory:"},
		{"file", core.Credentials{Database: "/data/films.duckdb"}, "/data/films.duckdb?access_mode=READ_ONLY"},
		{
			"explicit access mode",
			core.Credentials{Database: "films.duckdb", Options: map[string]string{"access_mode": "READ_WRITE"}},
			"films.duckdb?access_mode=READ_WRITE",
		},
		{
			"options",
			core.Credentials{Database: "films.duckdb", Options: map[string]string{"threads": "4", "access_mode": "READ_ONLY"}},
			"films.duckdb?access_mode=READ_ONLY&threads=4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New().DSN(tt.creds))
		})
	}
}

func TestAdapter_Open(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ""
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")

				ro, err := adapter.Open(context.Background(), New(), core.Credentials{Database: path})
				require.NoError(t, err)
				defer func() { _ = ro.Close() }()

				_, err = ro.ExecContext(context.Background(), "CREATE TABLE t (id INTEGER)")
				assert.Error(t, err, "default file access should be read-only")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setupPath(t)
			creds := core.Credentials{Database: path}
			if path != "" {
				creds.Options = map[string]string{"access_mode": "READ_WRITE"}
			}
			db, err := adapter.Open(context.Background(), New(), creds)
			require.NoError(t, err)
			if tt.verify != nil {
				require.NoError(t, db.Close())
				tt.verify(t, path)
				return
			}
			_ = db.Close()
		})
	}
}

func TestAdapter_CatalogQueries(t *testing.T) {
	ctx := context.Background()
	a := New()

	db, err := adapter.Open(ctx, a, core.Credentials{})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `CREATE TABLE films (id INTEGER PRIMARY KEY, title VARCHAR NOT NULL, rating VARCHAR)`)
	require.NoError(t, err)

	q, args := a.TablesQuery(a.DefaultSchema(""))
	rows, err := db.QueryContext(ctx, q, args...)
	require.NoError(t, err)
	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	_ = rows.Close()
	assert.Equal(t, []string{"films"}, tables)

	q, args = a.ColumnsQuery("main", "films")
	rows, err = db.QueryContext(ctx, q, args...)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	type col struct {
		name, typ, nullable string
		pos                 int
		primary             string
	}
	var cols []col
	for rows.Next() {
		var c col
		require.NoError(t, rows.Scan(&c.name, &c.typ, &c.nullable, &c.pos, &c.primary))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())

	require.Len(t, cols, 3)
	assert.Equal(t, "id", cols[0].name)
	assert.Equal(t, "YES", cols[0].primary)
	assert.Equal(t, "title", cols[1].name)
	assert.Equal(t, "NO", cols[1].nullable)
	assert.Equal(t, 3, cols[2].pos)
	assert.Equal(t, "NO", cols[2].primary)
}

func TestAdapter_Properties(t *testing.T) {
	a := New()
	assert.Equal(t, "duckdb", a.Name())
	assert.Equal(t, guard.ProfilePermissive, a.Dialect())
	assert.False(t, a.SupportsReadOnlyTx())
	assert.Equal(t, "main", a.DefaultSchema("whatever.duckdb"))
}
