// Package core defines the shared language of leapplan.
//
// This package contains:
//   - Plan entities (ExecutionStep, ValidatedStatement, Plan)
//   - Execution results (QueryResult, Row)
//   - Connection identity (Fingerprint) and connection settings
//   - The typed error taxonomy (Error, ErrorKind)
//   - Run history entities and the Store interface
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
