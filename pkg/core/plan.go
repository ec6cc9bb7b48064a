package core

// ExecutionStep is one candidate step extracted from plan text.
// Number is the numeral written in the label, not its position.
type ExecutionStep struct {
	Number      int    `json:"step_number" yaml:"step_number"`
	Description string `json:"description" yaml:"description"`
	SQL         string `json:"sql" yaml:"sql"`
}

// ValidatedStatement is a normalized, single, read-only statement
// together with the step it came from.
type ValidatedStatement struct {
	Step int    `json:"step" yaml:"step"`
	SQL  string `json:"sql" yaml:"sql"`
}

// Plan is an ordered sequence of validated statements. A Plan is only
// ever produced as a whole; a partially validated plan does not exist.
type Plan struct {
	Statements []ValidatedStatement `json:"statements" yaml:"statements"`
}

// Len returns the number of steps in the plan.
func (p Plan) Len() int {
	return len(p.Statements)
}

// IsEmpty reports whether the plan has no steps.
func (p Plan) IsEmpty() bool {
	return len(p.Statements) == 0
}
