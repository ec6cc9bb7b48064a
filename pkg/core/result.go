package core

import "time"

// Default limits.
const (
	// DefaultMaxRows is the result cap for a single statement.
	DefaultMaxRows = 1000

	// DefaultPoolSize is the number of connections held per identity.
	DefaultPoolSize = 5
)

// Row maps column names to values.
type Row map[string]any

// QueryResult is the outcome of one executed statement: either an ordered,
// bounded sequence of rows or an affected-row count.
type QueryResult struct {
	Step         int           `json:"step"`
	SQL          string        `json:"sql"`
	Columns      []string      `json:"columns,omitempty"`
	Rows         []Row         `json:"rows,omitempty"`
	RowsAffected int64         `json:"rows_affected,omitempty"`
	HasRows      bool          `json:"has_rows"`
	Duration     time.Duration `json:"duration"`
}

// RowCount returns the number of rows held by the result.
func (r QueryResult) RowCount() int {
	return len(r.Rows)
}
