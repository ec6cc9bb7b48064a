package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapplan/internal/cli/output"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// RunDetail is the serialized form of one recorded run with its steps.
type RunDetail struct {
	core.Run `yaml:",inline"`
	Steps    []*core.StepRun `json:"steps" yaml:"steps"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show recorded plan runs",
		Long: `List recent plan runs from the local history database, or show
the steps of one run.`,
		Example: `  leapplan history
  leapplan history --limit 5 -o json
  leapplan history 3f1c9a1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cc.Cfg.StatePath); os.IsNotExist(err) {
		return fmt.Errorf("no run history at %s (run 'leapplan run' first)", cc.Cfg.StatePath)
	}

	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	r := cc.Renderer
	if len(args) == 0 {
		runs, err := store.ListRuns(opts.Limit)
		if err != nil {
			return err
		}
		return renderRuns(r, runs)
	}

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}
	steps, err := store.GetStepRuns(run.ID)
	if err != nil {
		return err
	}
	return renderRunDetail(r, RunDetail{Run: *run, Steps: steps})
}

func renderRuns(r *output.Renderer, runs []*core.Run) error {
	if runs == nil {
		runs = []*core.Run{}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(runs)
	case output.ModeYAML:
		return r.YAML(runs)
	case output.ModeMarkdown:
		r.Println("| ID | Fingerprint | Status | Started | Duration |")
		r.Println("| --- | --- | --- | --- | --- |")
		for _, run := range runs {
			r.Printf("| %s | %s | %s | %s | %s |\n", run.ID, run.Fingerprint, run.Status,
				run.StartedAt.Format(time.RFC3339), elapsed(run))
		}
		return nil
	}

	if len(runs) == 0 {
		r.Muted("(no runs)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Fingerprint", "Status", "Started", "Duration", "Error"})
	for _, run := range runs {
		t.AppendRow(table.Row{run.ID, run.Fingerprint, run.Status,
			run.StartedAt.Local().Format(time.DateTime), elapsed(run), run.Error})
	}
	t.Render()
	return nil
}

func renderRunDetail(r *output.Renderer, d RunDetail) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(d)
	case output.ModeYAML:
		return r.YAML(d)
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Run "+d.ID))
		r.Println()
		r.Println(output.FormatKeyValue("status", d.Status))
		r.Println(output.FormatKeyValue("fingerprint", d.Fingerprint))
		r.Println(output.FormatKeyValue("started", d.StartedAt.Format(time.RFC3339)))
		r.Println(output.FormatKeyValue("duration", elapsed(&d.Run)))
		if d.Error != "" {
			r.Println(output.FormatKeyValue("error", d.Error))
		}
		r.Println()
		r.Println(output.FormatCodeBlock("", d.PlanText))
		r.Println()
	} else {
		r.Header(1, fmt.Sprintf("Run %s (%s)", d.ID, d.Status))
		if d.Error != "" {
			r.Error(d.Error)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	if r.EffectiveMode() == output.ModeMarkdown {
		t.SetStyle(table.StyleDefault)
		t.AppendHeader(table.Row{"Step", "Status", "Rows", "ms", "SQL"})
		for _, s := range d.Steps {
			t.AppendRow(table.Row{s.Step, s.Status, s.RowCount, s.ExecutionMS, s.SQL})
		}
		t.RenderMarkdown()
		return nil
	}

	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Status", "Rows", "ms", "SQL", "Error"})
	for _, s := range d.Steps {
		t.AppendRow(table.Row{s.Step, s.Status, s.RowCount, s.ExecutionMS, s.SQL, s.ErrorKind})
	}
	t.Render()
	return nil
}

func elapsed(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
