package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapplan/pkg/core"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// CreateRun records a new run in the running state. Only the short form of
// the fingerprint is stored.
func (s *SQLiteStore) CreateRun(fp core.Fingerprint, planText string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:          generateID(),
		Fingerprint: fp.Short(),
		PlanText:    planText,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("fingerprint", run.Fingerprint))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO runs (id, fingerprint, plan_text, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Fingerprint, run.PlanText, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx(),
		`SELECT id, fingerprint, plan_text, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errValue sql.NullString
	if errMsg != "" {
		errValue = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.ExecContext(ctx(),
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errValue, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	s.logger.Debug("run completed", slog.String("id", id), slog.String("status", string(status)))
	return nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT id, fingerprint, plan_text, status, started_at, completed_at, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// RecordStepRun stores the outcome of one step. An empty ID is generated.
func (s *SQLiteStore) RecordStepRun(step *core.StepRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if step.ID == "" {
		step.ID = generateID()
	}

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO step_runs (id, run_id, step, sql_text, status, row_count, error_kind, error, execution_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID, step.RunID, step.Step, step.SQL, string(step.Status), step.RowCount,
		nullString(step.ErrorKind), nullString(step.Error), step.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record step %d: %w", step.Step, err)
	}
	return nil
}

// GetStepRuns returns the steps of a run in step order.
func (s *SQLiteStore) GetStepRuns(runID string) ([]*core.StepRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT id, run_id, step, sql_text, status, row_count, error_kind, error, execution_ms
		FROM step_runs WHERE run_id = ? ORDER BY step`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get step runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var steps []*core.StepRun
	for rows.Next() {
		sr := &core.StepRun{}
		var status string
		var kind, errMsg sql.NullString
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Step, &sr.SQL, &status, &sr.RowCount, &kind, &errMsg, &sr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan step run: %w", err)
		}
		sr.Status = core.StepRunStatus(status)
		sr.ErrorKind = kind.String
		sr.Error = errMsg.String
		steps = append(steps, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get step runs: %w", err)
	}

	return steps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.Run, error) {
	run := &core.Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&run.ID, &run.Fingerprint, &run.PlanText, &status, &run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}

	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
