// Package executor runs validated statements against pooled connections.
//
// QueryExecutor runs one statement: it re-checks the statement with the
// dialect and safety guards, borrows a connection, wraps the statement in a
// transaction and enforces the row cap. PlanExecutor runs a whole plan step
// by step on top of it.
package executor
