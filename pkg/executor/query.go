package executor

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"
	"github.com/leapstack-labs/leapplan/pkg/pool"
)

// DefaultAcquireTimeout bounds the wait for a free pooled connection.
const DefaultAcquireTimeout = 30 * time.Second

// PoolSource resolves a fingerprint to its pool. *pool.Registry implements it.
type PoolSource interface {
	Pool(fp core.Fingerprint) (*pool.Pool, error)
}

// QueryExecutor runs single statements. It is safe for concurrent use.
type QueryExecutor struct {
	pools            PoolSource
	maxRows          int
	acquireTimeout   time.Duration
	statementTimeout time.Duration
	guards           []guard.Checker
	logger           *slog.Logger
}

// Option configures a QueryExecutor.
type Option func(*QueryExecutor)

// WithMaxRows sets the row cap. Values <= 0 keep core.DefaultMaxRows.
func WithMaxRows(n int) Option {
	return func(e *QueryExecutor) {
		if n > 0 {
			e.maxRows = n
		}
	}
}

// WithAcquireTimeout bounds the wait for a pooled connection. Zero waits
// until the caller's context is done.
func WithAcquireTimeout(d time.Duration) Option {
	return func(e *QueryExecutor) { e.acquireTimeout = d }
}

// WithStatementTimeout bounds each statement including its transaction.
func WithStatementTimeout(d time.Duration) Option {
	return func(e *QueryExecutor) { e.statementTimeout = d }
}

// WithGuards replaces the dialect and safety guards of every pool with
// checkers, applied in order.
func WithGuards(checkers ...guard.Checker) Option {
	return func(e *QueryExecutor) { e.guards = checkers }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *QueryExecutor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewQueryExecutor creates an executor drawing connections from pools.
func NewQueryExecutor(pools PoolSource, opts ...Option) *QueryExecutor {
	e := &QueryExecutor{
		pools:          pools,
		maxRows:        core.DefaultMaxRows,
		acquireTimeout: DefaultAcquireTimeout,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxRows returns the row cap.
func (e *QueryExecutor) MaxRows() int {
	return e.maxRows
}

// Execute runs one statement for the identity fp. args are bound
// positionally by the driver.
//
// Row-producing statements return at most MaxRows rows; one more fails the
// statement with a RESULT_TOO_LARGE error and nothing is returned. Other
// statements return the affected row count. Every failure rolls the
// transaction back, and the connection goes back to the pool on every path.
func (e *QueryExecutor) Execute(ctx context.Context, fp core.Fingerprint, stmt string, args ...any) (core.QueryResult, error) {
	start := time.Now()

	p, err := e.pools.Pool(fp)
	if err != nil {
		return core.QueryResult{}, err
	}

	stmt, err = e.enforce(p, stmt)
	if err != nil {
		return core.QueryResult{}, err
	}

	conn, err := e.acquire(ctx, p)
	if err != nil {
		return core.QueryResult{}, err
	}
	defer func() { _ = conn.Close() }()

	if e.statementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.statementTimeout)
		defer cancel()
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: p.ReadOnlyTx()})
	if err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}

	var res core.QueryResult
	if guard.ProducesRows(stmt) {
		res, err = e.query(ctx, tx, stmt, args)
	} else {
		res, err = execStatement(ctx, tx, stmt, args)
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Warn("rollback failed", slog.String("error", rbErr.Error()))
		}
		e.logger.Debug("statement failed",
			slog.String("fingerprint", fp.Short()),
			slog.String("kind", string(core.KindOf(err))))
		return core.QueryResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}

	res.SQL = stmt
	res.Duration = time.Since(start)

	e.logger.Debug("statement executed",
		slog.String("fingerprint", fp.Short()),
		slog.Int("rows", res.RowCount()),
		slog.Int64("rows_affected", res.RowsAffected),
		slog.Duration("duration", res.Duration))

	return res, nil
}

// enforce runs the guards in order, feeding each the output of the last.
func (e *QueryExecutor) enforce(p *pool.Pool, stmt string) (string, error) {
	checkers := e.guards
	if checkers == nil {
		checkers = []guard.Checker{guard.ForDialect(p.Dialect()), guard.NewSafetyGuard()}
	}

	var err error
	for _, c := range checkers {
		if stmt, err = c.Check(stmt); err != nil {
			return "", err
		}
	}
	return stmt, nil
}

func (e *QueryExecutor) acquire(ctx context.Context, p *pool.Pool) (*sql.Conn, error) {
	actx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}

	conn, err := p.Acquire(actx)
	if err != nil {
		// the caller's own deadline or cancellation is not a pool timeout
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, core.ErrAcquireTimeout(err)
		}
		return nil, core.ErrExecution(err)
	}
	return conn, nil
}

func (e *QueryExecutor) query(ctx context.Context, tx *sql.Tx, stmt string, args []any) (core.QueryResult, error) {
	qctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows, err := tx.QueryContext(qctx, stmt, args...)
	if err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}

	out := make([]core.Row, 0)
	for rows.Next() {
		if len(out) == e.maxRows {
			// stop the server streaming the rest before the rows are closed
			cancel()
			return core.QueryResult{}, core.ErrResultTooLarge(e.maxRows)
		}
		row, err := scanRow(rows, cols)
		if err != nil {
			return core.QueryResult{}, core.ErrExecution(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}

	return core.QueryResult{Columns: cols, Rows: out, HasRows: true}, nil
}

func execStatement(ctx context.Context, tx *sql.Tx, stmt string, args []any) (core.QueryResult, error) {
	r, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return core.QueryResult{}, core.ErrExecution(err)
	}
	return core.QueryResult{RowsAffected: n}, nil
}

func scanRow(rows *sql.Rows, cols []string) (core.Row, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make(core.Row, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = values[i]
	}
	return row, nil
}
