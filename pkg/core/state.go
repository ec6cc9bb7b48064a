package core

import "time"

// Store defines the interface for run history operations.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Run operations
	CreateRun(fp Fingerprint, planText string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	ListRuns(limit int) ([]*Run, error)

	// Step operations
	RecordStepRun(step *StepRun) error
	GetStepRuns(runID string) ([]*StepRun, error)
}

// RunStatus represents the status of a plan run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusRejected  RunStatus = "rejected"
)

// Run represents one execution of a plan.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Fingerprint string     `json:"fingerprint" yaml:"fingerprint"`
	PlanText    string     `json:"plan_text" yaml:"plan_text"`
	Status      RunStatus  `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// StepRunStatus represents the outcome of one plan step.
type StepRunStatus string

// Step run status constants.
const (
	StepRunStatusSuccess StepRunStatus = "success"
	StepRunStatusFailed  StepRunStatus = "failed"
)

// StepRun records a single step execution within a run.
type StepRun struct {
	ID          string        `json:"id" yaml:"id"`
	RunID       string        `json:"run_id" yaml:"run_id"`
	Step        int           `json:"step" yaml:"step"`
	SQL         string        `json:"sql" yaml:"sql"`
	Status      StepRunStatus `json:"status" yaml:"status"`
	RowCount    int64         `json:"row_count" yaml:"row_count"`
	ErrorKind   string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	ExecutionMS int64         `json:"execution_ms" yaml:"execution_ms"`
}
