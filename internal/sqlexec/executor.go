// Package sqlexec runs generated statements against the medals table inside
// read-only transactions and classifies failures.
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultMaxRows caps how many rows a single statement may return.
const DefaultMaxRows = 1000

type Executor struct {
	db      *sql.DB
	timeout time.Duration
	maxRows int
	role    string
	logger  *slog.Logger
}

type Option func(*Executor)

// WithRole makes every statement run under role via SET LOCAL ROLE, so the
// connection's own privileges never apply to generated SQL.
func WithRole(role string) Option {
	return func(e *Executor) { e.role = role }
}

// NewExecutor wraps db. A zero timeout leaves the deadline to the caller's
// context.
func NewExecutor(db *sql.DB, timeout time.Duration, opts ...Option) *Executor {
	e := &Executor{
		db:      db,
		timeout: timeout,
		maxRows: DefaultMaxRows,
		logger:  slog.Default().With("component", "sqlexec"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute checks statement, runs it in a read-only transaction and returns
// the normalized rows. Every error it returns is a *Error.
func (e *Executor) Execute(ctx context.Context, statement string) ([]Row, error) {
	if err := CheckStatement(statement); err != nil {
		return nil, &Error{Kind: KindSyntax, Code: CodeStatementRejected, Err: err}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, &Error{Kind: KindExecution, Err: fmt.Errorf("begin read-only tx: %w", err)}
	}

	if e.role != "" {
		if _, err := tx.ExecContext(ctx, "SET LOCAL ROLE "+pgx.Identifier{e.role}.Sanitize()); err != nil {
			_ = tx.Rollback()
			return nil, &Error{Kind: KindExecution, Err: fmt.Errorf("assume query role: %w", err)}
		}
	}

	rows, err := e.query(ctx, tx, statement)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Error("rollback failed", "error", rbErr, "cause", err)
		}
		return nil, Classify(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, Classify(fmt.Errorf("commit: %w", err))
	}
	return rows, nil
}

func (e *Executor) query(ctx context.Context, tx *sql.Tx, statement string) ([]Row, error) {
	rs, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	types, err := rs.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	out := []Row{}
	values := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rs.Next() {
		if len(out) == e.maxRows {
			e.logger.Warn("result truncated", "max_rows", e.maxRows)
			break
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(types))
		for i, ct := range types {
			row[i] = Column{Name: ct.Name(), Value: normalizeValue(values[i], ct.DatabaseTypeName())}
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
