package mysql

import "github.com/leapstack-labs/leapplan/pkg/adapter"

func init() {
	adapter.Register("mysql", func() adapter.Adapter { return New() })
}
