package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapplan/pkg/core"
)

// StepResult is the serialized form of one executed step.
type StepResult struct {
	Step         int              `json:"step" yaml:"step"`
	SQL          string           `json:"sql" yaml:"sql"`
	Columns      []string         `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty" yaml:"rows,omitempty"`
	RowCount     int              `json:"row_count" yaml:"row_count"`
	RowsAffected int64            `json:"rows_affected,omitempty" yaml:"rows_affected,omitempty"`
	DurationMS   int64            `json:"duration_ms" yaml:"duration_ms"`
}

// RunOutput is the serialized form of a plan run.
type RunOutput struct {
	RunID       string       `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Fingerprint string       `json:"fingerprint" yaml:"fingerprint"`
	Status      string       `json:"status" yaml:"status"`
	Steps       []StepResult `json:"steps" yaml:"steps"`
	Error       *ErrorOutput `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorOutput describes a failed run.
type ErrorOutput struct {
	Kind    string `json:"kind" yaml:"kind"`
	Step    int    `json:"step,omitempty" yaml:"step,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// NewStepResult converts an executed statement.
func NewStepResult(res core.QueryResult) StepResult {
	rows := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		rows[i] = row
	}
	return StepResult{
		Step:         res.Step,
		SQL:          res.SQL,
		Columns:      res.Columns,
		Rows:         rows,
		RowCount:     res.RowCount(),
		RowsAffected: res.RowsAffected,
		DurationMS:   res.Duration.Milliseconds(),
	}
}

// NewErrorOutput converts err, or returns nil.
func NewErrorOutput(err error) *ErrorOutput {
	if err == nil {
		return nil
	}
	kind := string(core.KindOf(err))
	if kind == "" {
		kind = "ERROR"
	}
	return &ErrorOutput{Kind: kind, Step: core.StepOf(err), Message: err.Error()}
}

// RenderResult writes the rows of one step in the effective mode.
// JSON and YAML are written as whole documents by RenderRun instead.
func (r *Renderer) RenderResult(res core.QueryResult) error {
	switch r.EffectiveMode() {
	case ModeCSV:
		return renderCSV(r.out, res)
	case ModeMarkdown:
		return r.renderMarkdown(res)
	case ModeJSON:
		return r.JSON(NewStepResult(res))
	case ModeYAML:
		return r.YAML(NewStepResult(res))
	default:
		return r.renderTable(res)
	}
}

// RenderRun writes all step results followed by the error, if any.
func (r *Renderer) RenderRun(run RunOutput, results []core.QueryResult) error {
	mode := r.EffectiveMode()
	if mode == ModeJSON || mode == ModeYAML {
		for _, res := range results {
			run.Steps = append(run.Steps, NewStepResult(res))
		}
		if run.Steps == nil {
			run.Steps = []StepResult{}
		}
		if mode == ModeJSON {
			return r.JSON(run)
		}
		return r.YAML(run)
	}

	for i, res := range results {
		if mode != ModeCSV {
			if i > 0 {
				r.Println()
			}
			r.Header(2, fmt.Sprintf("Step %d", res.Step))
		} else if i > 0 {
			r.Println()
		}
		if err := r.RenderResult(res); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderTable(res core.QueryResult) error {
	if !res.HasRows {
		r.Printf("(%d rows affected)\n", res.RowsAffected)
		return nil
	}
	if res.RowCount() == 0 {
		r.Println("(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range res.Rows {
		tr := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			tr[i] = FormatValue(row[col])
		}
		t.AppendRow(tr)
	}

	t.Render()
	r.Muted(fmt.Sprintf("(%d rows, %s)", res.RowCount(), res.Duration.Round(time.Millisecond)))
	return nil
}

func (r *Renderer) renderMarkdown(res core.QueryResult) error {
	r.Println(FormatCodeBlock("sql", res.SQL))
	r.Println()

	if !res.HasRows {
		r.Printf("(%d rows affected)\n", res.RowsAffected)
		return nil
	}
	if res.RowCount() == 0 {
		r.Println("(0 rows)")
		return nil
	}

	r.Printf("| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	r.Printf("| %s |\n", strings.Join(seps, " | "))

	for _, row := range res.Rows {
		values := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			values[i] = strings.ReplaceAll(FormatValue(row[col]), "|", `\|`)
		}
		r.Printf("| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func renderCSV(w io.Writer, res core.QueryResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return err
	}
	for _, row := range res.Rows {
		record := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			record[i] = FormatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a scanned value; nil becomes NULL.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
