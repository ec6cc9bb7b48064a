package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapplan/internal/cli/output"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/plan"
	"github.com/spf13/cobra"
)

// ValidateOutput is the serialized result of the validate command.
type ValidateOutput struct {
	Valid      bool                      `json:"valid" yaml:"valid"`
	Steps      []core.ExecutionStep      `json:"steps" yaml:"steps"`
	Statements []core.ValidatedStatement `json:"statements,omitempty" yaml:"statements,omitempty"`
	Error      *output.ErrorOutput       `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a plan without executing it",
		Long: `Parse a plan and apply every structural and safety rule without
connecting to a database. Exits non-zero when the plan is rejected.`,
		Example: `  leapplan validate plan.txt
  leapplan validate plan.txt -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	text, err := readPlan(cmd, args)
	if err != nil {
		return err
	}

	steps := plan.Parse(text)
	validated, verr := plan.Validate(steps)

	out := ValidateOutput{
		Valid:      verr == nil,
		Steps:      steps,
		Statements: validated.Statements,
		Error:      output.NewErrorOutput(verr),
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeYAML:
		if err := r.YAML(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderValidateMarkdown(r, out)
	default:
		renderValidateTable(r, out)
	}

	return verr
}

func renderValidateTable(r *output.Renderer, out ValidateOutput) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Description", "SQL"})
	for _, s := range out.Steps {
		t.AppendRow(table.Row{s.Number, s.Description, s.SQL})
	}
	t.Render()

	if out.Valid {
		r.Success(fmt.Sprintf("Plan is valid (%d steps)", len(out.Statements)))
	}
}

func renderValidateMarkdown(r *output.Renderer, out ValidateOutput) {
	r.Header(1, "Plan")
	for _, s := range out.Steps {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Step %d: %s", s.Number, s.Description)))
		r.Println()
		r.Println(output.FormatCodeBlock("sql", plan.Normalize(s.SQL)))
		r.Println()
	}

	status := "valid"
	if !out.Valid {
		status = "rejected"
	}
	r.Println(output.FormatKeyValue("status", status))
	if out.Error != nil {
		r.Println(output.FormatKeyValue("error", out.Error.Message))
	}
}
