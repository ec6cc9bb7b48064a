// Package schema reads table and column metadata from the engine catalog.
//
// Catalog queries go through the same executor as plan statements, so they
// are guarded, parameterized and subject to the row cap.
package schema

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/executor"
)

// Inspector lists tables and describes their columns.
type Inspector struct {
	pools executor.PoolSource
	exec  executor.StatementExecutor
}

// NewInspector creates an Inspector.
func NewInspector(pools executor.PoolSource, exec executor.StatementExecutor) *Inspector {
	return &Inspector{pools: pools, exec: exec}
}

// ListTables returns the base tables in the default schema of fp's database.
func (i *Inspector) ListTables(ctx context.Context, fp core.Fingerprint) ([]string, error) {
	p, err := i.pools.Pool(fp)
	if err != nil {
		return nil, err
	}

	q, args := p.Adapter.TablesQuery(p.Adapter.DefaultSchema(p.Database))
	res, err := i.exec.Execute(ctx, fp, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		tables = append(tables, asString(row["table_name"]))
	}
	return tables, nil
}

// DescribeTable returns the columns of table. The name may be qualified
// as schema.table.
func (i *Inspector) DescribeTable(ctx context.Context, fp core.Fingerprint, table string) (*core.TableMetadata, error) {
	p, err := i.pools.Pool(fp)
	if err != nil {
		return nil, err
	}

	schemaName, name := adapter.ParseQualifiedName(table, p.Adapter.DefaultSchema(p.Database))
	q, args := p.Adapter.ColumnsQuery(schemaName, name)
	res, err := i.exec.Execute(ctx, fp, q, args...)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	meta := &core.TableMetadata{
		Schema:  schemaName,
		Name:    name,
		Columns: make([]core.Column, 0, len(res.Rows)),
	}
	for _, row := range res.Rows {
		meta.Columns = append(meta.Columns, core.Column{
			Name:       asString(row["column_name"]),
			Type:       asString(row["data_type"]),
			Nullable:   asString(row["is_nullable"]) == "YES",
			PrimaryKey: asString(row["is_primary"]) == "YES",
			Position:   asInt(row["ordinal_position"]),
		})
	}
	return meta, nil
}

// Describe returns metadata for every table of fp's default schema.
func (i *Inspector) Describe(ctx context.Context, fp core.Fingerprint) ([]*core.TableMetadata, error) {
	tables, err := i.ListTables(ctx, fp)
	if err != nil {
		return nil, err
	}

	out := make([]*core.TableMetadata, 0, len(tables))
	for _, t := range tables {
		meta, err := i.DescribeTable(ctx, fp, t)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	default:
		return 0
	}
}
