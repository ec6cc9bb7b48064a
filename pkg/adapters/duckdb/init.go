package duckdb

import "github.com/leapstack-labs/leapplan/pkg/adapter"

func init() {
	adapter.Register("duckdb", func() adapter.Adapter { return New() })
}
