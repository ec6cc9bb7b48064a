package guard

// SafetyGuard re-checks the read-only shape of a statement right before it
// reaches the database, whether or not the statement came from a validated
// plan.
type SafetyGuard struct{}

// NewSafetyGuard returns a SafetyGuard.
func NewSafetyGuard() *SafetyGuard {
	return &SafetyGuard{}
}

// Enforce fails if sql does not start with SELECT or WITH, or if it contains
// a forbidden keyword.
func (g *SafetyGuard) Enforce(sql string) error {
	if err := CheckReadOnly(sql); err != nil {
		return err
	}
	return CheckForbidden(sql)
}

// Check implements Checker.
func (g *SafetyGuard) Check(sql string) (string, error) {
	if err := g.Enforce(sql); err != nil {
		return "", err
	}
	return sql, nil
}
