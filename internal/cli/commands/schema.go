package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapplan/internal/cli/output"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [TABLE]",
		Short: "List tables or describe one table",
		Long: `Read the target database catalog.

Without arguments, lists the base tables of the configured database.
With a table name (optionally qualified as schema.table), lists its columns.`,
		Example: `  leapplan schema
  leapplan schema film -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, args)
		},
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	rt := NewRuntime(cc.Cfg, cc.Logger)
	defer func() { _ = rt.Close() }()

	ctx := cmd.Context()
	fp, err := rt.Registry.Connect(ctx, cc.Cfg.Target.Credentials())
	if err != nil {
		return err
	}

	r := cc.Renderer
	if len(args) == 0 {
		tables, err := rt.Inspector.ListTables(ctx, fp)
		if err != nil {
			return err
		}
		return renderTables(r, tables)
	}

	meta, err := rt.Inspector.DescribeTable(ctx, fp, args[0])
	if err != nil {
		return err
	}
	return renderTableMetadata(r, meta)
}

func renderTables(r *output.Renderer, tables []string) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(tables)
	case output.ModeYAML:
		return r.YAML(tables)
	}

	res := core.QueryResult{Columns: []string{"table_name"}, HasRows: true}
	for _, name := range tables {
		res.Rows = append(res.Rows, core.Row{"table_name": name})
	}
	return r.RenderResult(res)
}

func renderTableMetadata(r *output.Renderer, meta *core.TableMetadata) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(meta)
	case output.ModeYAML:
		return r.YAML(meta)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("%s.%s", meta.Schema, meta.Name)))
		r.Println()
		r.Println("| Column | Type | Nullable | Primary Key |")
		r.Println("| --- | --- | --- | --- |")
		for _, c := range meta.Columns {
			r.Printf("| %s | %s | %s | %s |\n", c.Name, c.Type, yesNo(c.Nullable), yesNo(c.PrimaryKey))
		}
		return nil
	}

	r.Header(1, fmt.Sprintf("Table: %s.%s", meta.Schema, meta.Name))
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Column", "Type", "Nullable", "Primary Key"})
	for _, c := range meta.Columns {
		t.AppendRow(table.Row{c.Position, c.Name, c.Type, yesNo(c.Nullable), yesNo(c.PrimaryKey)})
	}
	t.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
