package sqlite

import "github.com/leapstack-labs/leapplan/pkg/adapter"

func init() {
	adapter.Register("sqlite", func() adapter.Adapter { return New() })
}
