// Package guard holds the statement checks that run at the execution
// boundary: a DialectGuard rejecting constructs the target engine does not
// speak, and a SafetyGuard restricting statements to a single read-only
// shape.
//
// Both guards are stateless and safe for concurrent use. The classification
// is shape-level only; guard does not parse SQL.
package guard
