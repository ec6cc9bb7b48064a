// Package plan extracts step-labelled SQL statements from free-form text and
// validates them into a core.Plan.
//
// A plan looks like:
//
//	Step1: top categories `SELECT category, COUNT(*) FROM films GROUP BY category LIMIT 5;`
//	Step2: average length `SELECT AVG(length) FROM films;`
//
// Parsing never fails; text that does not match the step shape is ignored.
// Validation is all-or-nothing: the first violated rule rejects the whole
// plan before anything runs.
package plan
