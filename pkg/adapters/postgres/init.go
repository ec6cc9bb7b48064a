package postgres

import "github.com/leapstack-labs/leapplan/pkg/adapter"

func init() {
	adapter.Register("postgres", func() adapter.Adapter { return New() })
}
