package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
)

// NewMockDB returns a sqlmock handle that matches statements literally.
// The handle is closed when the test ends.
func NewMockDB(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// MockOpener returns a pool opener that always hands out db.
func MockOpener(db *sql.DB) func(context.Context, adapter.Adapter, core.Credentials) (*sql.DB, error) {
	return func(context.Context, adapter.Adapter, core.Credentials) (*sql.DB, error) {
		return db, nil
	}
}
