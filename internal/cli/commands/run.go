package commands

import (
	"log/slog"

	"github.com/leapstack-labs/leapplan/internal/cli/output"
	"github.com/leapstack-labs/leapplan/internal/state"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/plan"
	"github.com/leapstack-labs/leapplan/pkg/pool"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	NoHistory bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Validate and execute a plan",
		Long: `Validate a multi-step plan and execute its statements in order.

The plan is read from FILE, or from stdin when FILE is "-" or omitted.
Every step must hold exactly one read-only statement; if any step is
invalid nothing is executed. Execution stops at the first failing step and
the results of the steps before it are still shown.

Each run is recorded in the local history (see 'leapplan history').`,
		Example: `  # Run a plan file
  leapplan run plan.txt

  # Pipe a plan and get JSON
  cat plan.txt | leapplan run -o json

  # Run against a different database without recording history
  leapplan run plan.txt --database reporting --no-history`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run in the history database")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	text, err := readPlan(cmd, args)
	if err != nil {
		return err
	}

	creds := cc.Cfg.Target.Credentials()
	rec := &runRecorder{logger: cc.Logger}
	if !opts.NoHistory {
		store, err := openStore(cc.Cfg, cc.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		rec.store = store
	}
	rec.start(pool.FingerprintOf(creds), text)

	out := output.RunOutput{
		RunID:       rec.runID(),
		Fingerprint: pool.FingerprintOf(creds).Short(),
	}

	validated, err := plan.ParseAndValidate(text)
	if err != nil {
		rec.finish(core.RunStatusRejected, err)
		out.Status = string(core.RunStatusRejected)
		out.Error = output.NewErrorOutput(err)
		return renderRunAndReturn(cc.Renderer, out, nil, err)
	}

	rt := NewRuntime(cc.Cfg, cc.Logger)
	defer func() { _ = rt.Close() }()

	ctx := cmd.Context()
	fp, err := rt.Registry.Connect(ctx, creds)
	if err != nil {
		rec.finish(core.RunStatusFailed, err)
		return err
	}

	results, runErr := rt.Plans.Run(ctx, fp, validated)
	rec.steps(validated, results, runErr)

	if runErr != nil {
		rec.finish(core.RunStatusFailed, runErr)
		out.Status = string(core.RunStatusFailed)
		out.Error = output.NewErrorOutput(runErr)
	} else {
		rec.finish(core.RunStatusCompleted, nil)
		out.Status = string(core.RunStatusCompleted)
	}

	return renderRunAndReturn(cc.Renderer, out, results, runErr)
}

// renderRunAndReturn renders the run and passes runErr through so the
// process exits non-zero on failure.
func renderRunAndReturn(r *output.Renderer, out output.RunOutput, results []core.QueryResult, runErr error) error {
	if err := r.RenderRun(out, results); err != nil {
		return err
	}
	return runErr
}

// runRecorder writes a run to the history store. A nil store records
// nothing. Store failures are logged and never fail the run.
type runRecorder struct {
	store  *state.SQLiteStore
	logger *slog.Logger
	run    *core.Run
}

func (rr *runRecorder) start(fp core.Fingerprint, text string) {
	if rr.store == nil {
		return
	}
	run, err := rr.store.CreateRun(fp, text)
	if err != nil {
		rr.logger.Warn("failed to record run", slog.String("error", err.Error()))
		return
	}
	rr.run = run
}

func (rr *runRecorder) runID() string {
	if rr.run == nil {
		return ""
	}
	return rr.run.ID
}

func (rr *runRecorder) steps(p core.Plan, results []core.QueryResult, runErr error) {
	if rr.run == nil {
		return
	}

	for _, res := range results {
		rr.record(&core.StepRun{
			RunID:       rr.run.ID,
			Step:        res.Step,
			SQL:         res.SQL,
			Status:      core.StepRunStatusSuccess,
			RowCount:    int64(res.RowCount()) + res.RowsAffected,
			ExecutionMS: res.Duration.Milliseconds(),
		})
	}

	step := core.StepOf(runErr)
	if runErr == nil || step < 1 || step > p.Len() {
		return
	}
	rr.record(&core.StepRun{
		RunID:     rr.run.ID,
		Step:      step,
		SQL:       p.Statements[step-1].SQL,
		Status:    core.StepRunStatusFailed,
		ErrorKind: string(core.KindOf(runErr)),
		Error:     runErr.Error(),
	})
}

func (rr *runRecorder) record(sr *core.StepRun) {
	if err := rr.store.RecordStepRun(sr); err != nil {
		rr.logger.Warn("failed to record step", slog.Int("step", sr.Step), slog.String("error", err.Error()))
	}
}

func (rr *runRecorder) finish(status core.RunStatus, err error) {
	if rr.run == nil {
		return
	}
	var msg string
	if err != nil {
		msg = err.Error()
	}
	if cerr := rr.store.CompleteRun(rr.run.ID, status, msg); cerr != nil {
		rr.logger.Warn("failed to complete run", slog.String("error", cerr.Error()))
	}
}
