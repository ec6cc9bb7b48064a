package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapplan/internal/cli/config"
	"github.com/leapstack-labs/leapplan/internal/cli/output"
	"github.com/leapstack-labs/leapplan/internal/cli/testutil"
	"github.com/leapstack-labs/leapplan/internal/state"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapplan/pkg/adapters/sqlite"
)

const twoStepPlan = "Step1: count films `SELECT COUNT(*) AS n FROM film`\n" +
	"Step2: unrated films ```sql\nSELECT title FROM film WHERE rating IS NULL ORDER BY film_id\n```"

func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(config.WithConfig(context.Background(), cfg))
	return out.String(), err
}

func decodeRun(t *testing.T, s string) output.RunOutput {
	t.Helper()
	var out output.RunOutput
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func openHistory(t *testing.T, cfg *config.Config) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(cfg.StatePath))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunCommand_Success(t *testing.T) {
	dir, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)
	planFile := testutil.WritePlan(t, dir, twoStepPlan)

	s, err := execute(t, NewRunCommand(), cfg, "", planFile)
	require.NoError(t, err)

	out := decodeRun(t, s)
	assert.Equal(t, string(core.RunStatusCompleted), out.Status)
	assert.NotEmpty(t, out.RunID)
	assert.Nil(t, out.Error)
	require.Len(t, out.Steps, 2)

	assert.Equal(t, 1, out.Steps[0].Step)
	require.Len(t, out.Steps[0].Rows, 1)
	assert.EqualValues(t, 12, out.Steps[0].Rows[0]["n"])

	assert.Equal(t, 2, out.Steps[1].Step)
	assert.Equal(t, 4, out.Steps[1].RowCount)
	assert.Equal(t, "FILM 03", out.Steps[1].Rows[0]["title"])

	store := openHistory(t, cfg)
	run, err := store.GetRun(out.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, twoStepPlan, run.PlanText)

	steps, err := store.GetStepRuns(run.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, int64(4), steps[1].RowCount)
}

func TestRunCommand_Stdin(t *testing.T) {
	_, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)

	s, err := execute(t, NewRunCommand(), cfg, twoStepPlan)
	require.NoError(t, err)
	assert.Len(t, decodeRun(t, s).Steps, 2)
}

func TestRunCommand_ResultTooLarge(t *testing.T) {
	dir, cfg := testutil.SetupTestProject(t, 5)
	planFile := testutil.WritePlan(t, dir,
		"Step1: count `SELECT COUNT(*) FROM film`\nStep2: everything `SELECT * FROM film`\nStep3: never `SELECT 1`")

	s, err := execute(t, NewRunCommand(), cfg, "", planFile)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindResultTooLarge))
	assert.Equal(t, 2, core.StepOf(err))

	out := decodeRun(t, s)
	assert.Equal(t, string(core.RunStatusFailed), out.Status)
	require.Len(t, out.Steps, 1, "results before the failing step are kept")
	require.NotNil(t, out.Error)
	assert.Equal(t, string(core.KindResultTooLarge), out.Error.Kind)

	steps, err := openHistory(t, cfg).GetStepRuns(out.RunID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, core.StepRunStatusFailed, steps[1].Status)
	assert.Equal(t, "SELECT * FROM film", steps[1].SQL)
	assert.Equal(t, string(core.KindResultTooLarge), steps[1].ErrorKind)
}

func TestRunCommand_Rejected(t *testing.T) {
	dir, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)
	planFile := testutil.WritePlan(t, dir,
		"Step1: ok `SELECT 1`\nStep2: bad `DELETE FROM film`")

	s, err := execute(t, NewRunCommand(), cfg, "", planFile)
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindForbiddenOperation))

	out := decodeRun(t, s)
	assert.Equal(t, string(core.RunStatusRejected), out.Status)
	assert.Empty(t, out.Steps, "nothing runs when validation fails")
	assert.Equal(t, 2, out.Error.Step)

	run, err := openHistory(t, cfg).GetRun(out.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusRejected, run.Status)
}

func TestRunCommand_NoHistory(t *testing.T) {
	dir, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)
	planFile := testutil.WritePlan(t, dir, twoStepPlan)

	s, err := execute(t, NewRunCommand(), cfg, "", "--no-history", planFile)
	require.NoError(t, err)
	assert.Empty(t, decodeRun(t, s).RunID)

	_, statErr := os.Stat(cfg.StatePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCommand_Markdown(t *testing.T) {
	dir, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)
	cfg.OutputFormat = "auto"
	planFile := testutil.WritePlan(t, dir, twoStepPlan)

	s, err := execute(t, NewRunCommand(), cfg, "", planFile)
	require.NoError(t, err)

	testutil.AssertNoANSI(t, s)
	testutil.AssertValidMarkdown(t, s)
	assert.Contains(t, s, "## Step 1")
	assert.Contains(t, s, "| FILM 03 |")
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)

	_, err := execute(t, NewRunCommand(), cfg, "", "does-not-exist.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan")
}

func TestCommand_NoConfig(t *testing.T) {
	cmd := NewRunCommand()
	cmd.SetArgs([]string{"-"})
	cmd.SetIn(strings.NewReader(twoStepPlan))
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration not loaded")
}

func TestValidateCommand(t *testing.T) {
	_, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)

	t.Run("valid", func(t *testing.T) {
		s, err := execute(t, NewValidateCommand(), cfg, twoStepPlan)
		require.NoError(t, err)

		var out ValidateOutput
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		assert.True(t, out.Valid)
		require.Len(t, out.Statements, 2)
		assert.Equal(t, "SELECT title FROM film WHERE rating IS NULL ORDER BY film_id", out.Statements[1].SQL)
	})

	t.Run("invalid", func(t *testing.T) {
		s, err := execute(t, NewValidateCommand(), cfg, "Step1: a `SELECT 1`\nStep3: b `SELECT 2`")
		require.Error(t, err)
		assert.True(t, core.IsKind(err, core.KindStepNumbering))

		var out ValidateOutput
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		assert.False(t, out.Valid)
		assert.Len(t, out.Steps, 2)
		assert.Empty(t, out.Statements)
		assert.Equal(t, string(core.KindStepNumbering), out.Error.Kind)
	})

	t.Run("markdown", func(t *testing.T) {
		md := *cfg
		md.OutputFormat = "md"
		s, err := execute(t, NewValidateCommand(), &md, twoStepPlan)
		require.NoError(t, err)
		testutil.AssertValidMarkdown(t, s)
		assert.Contains(t, s, "- **status**: valid")
	})
}

func TestSchemaCommand(t *testing.T) {
	_, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)

	s, err := execute(t, NewSchemaCommand(), cfg, "")
	require.NoError(t, err)
	var tables []string
	require.NoError(t, json.Unmarshal([]byte(s), &tables))
	assert.Equal(t, []string{"actor", "film"}, tables)

	s, err = execute(t, NewSchemaCommand(), cfg, "", "film")
	require.NoError(t, err)
	var meta core.TableMetadata
	require.NoError(t, json.Unmarshal([]byte(s), &meta))
	assert.Equal(t, "film", meta.Name)
	require.Len(t, meta.Columns, 4)
	assert.Equal(t, "film_id", meta.Columns[0].Name)
	assert.True(t, meta.Columns[0].PrimaryKey)
	assert.False(t, meta.Columns[1].Nullable)
	assert.True(t, meta.Columns[2].Nullable)

	_, err = execute(t, NewSchemaCommand(), cfg, "", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHistoryCommand(t *testing.T) {
	dir, cfg := testutil.SetupTestProject(t, core.DefaultMaxRows)

	_, err := execute(t, NewHistoryCommand(), cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run history")

	planFile := testutil.WritePlan(t, dir, twoStepPlan)
	s, err := execute(t, NewRunCommand(), cfg, "", planFile)
	require.NoError(t, err)
	runID := decodeRun(t, s).RunID

	s, err = execute(t, NewHistoryCommand(), cfg, "")
	require.NoError(t, err)
	var runs []core.Run
	require.NoError(t, json.Unmarshal([]byte(s), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, core.RunStatusCompleted, runs[0].Status)

	s, err = execute(t, NewHistoryCommand(), cfg, "", runID)
	require.NoError(t, err)
	var detail RunDetail
	require.NoError(t, json.Unmarshal([]byte(s), &detail))
	assert.Equal(t, runID, detail.ID)
	assert.Len(t, detail.Steps, 2)

	_, err = execute(t, NewHistoryCommand(), cfg, "", "missing")
	assert.ErrorIs(t, err, state.ErrRunNotFound)
}

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{name: "default version", version: "0.1.0", want: "leapplan v0.1.0"},
		{name: "dev version", version: "dev", want: "leapplan vdev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
