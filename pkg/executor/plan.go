package executor

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// StatementExecutor runs one statement. *QueryExecutor implements it.
type StatementExecutor interface {
	Execute(ctx context.Context, fp core.Fingerprint, stmt string, args ...any) (core.QueryResult, error)
}

// PlanExecutor runs validated plans one step at a time.
type PlanExecutor struct {
	exec   StatementExecutor
	logger *slog.Logger
}

// NewPlanExecutor creates a PlanExecutor. A nil logger discards output.
func NewPlanExecutor(exec StatementExecutor, logger *slog.Logger) *PlanExecutor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PlanExecutor{exec: exec, logger: logger}
}

// Run executes the statements of p in order. The first failure stops the
// run: results of the steps before it are returned together with the error,
// which carries the failing step. Steps that already ran are not undone.
func (e *PlanExecutor) Run(ctx context.Context, fp core.Fingerprint, p core.Plan) ([]core.QueryResult, error) {
	results := make([]core.QueryResult, 0, p.Len())

	for _, st := range p.Statements {
		if err := ctx.Err(); err != nil {
			return results, core.AtStep(err, st.Step)
		}

		e.logger.Debug("running step", slog.Int("step", st.Step), slog.String("fingerprint", fp.Short()))

		res, err := e.exec.Execute(ctx, fp, st.SQL)
		if err != nil {
			e.logger.Debug("step failed", slog.Int("step", st.Step), slog.String("error", err.Error()))
			return results, core.AtStep(err, st.Step)
		}

		res.Step = st.Step
		results = append(results, res)
	}

	return results, nil
}

// Execute parses and validates text, then runs the plan. Validation is
// all-or-nothing: on a validation error nothing is executed.
func (e *PlanExecutor) Execute(ctx context.Context, fp core.Fingerprint, text string) ([]core.QueryResult, error) {
	p, err := plan.ParseAndValidate(text)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, fp, p)
}
