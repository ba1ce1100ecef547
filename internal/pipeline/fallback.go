package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/observability"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

const StrategySimplify = "simplify"

// RetryPolicy bounds how many statements one question may execute and how
// the retry statement is produced.
type RetryPolicy struct {
	MaxExecutions int
	Strategy      string
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxExecutions: 2, Strategy: StrategySimplify}
}

func (p RetryPolicy) allowsRetry(executed int) bool {
	return p.Strategy == StrategySimplify && executed < p.MaxExecutions
}

// Request is the input of one fallback run. SQLPrompt is the fully built
// primary prompt.
type Request struct {
	Question      string
	SystemPrompt  string
	SQLPrompt     string
	ExcludedTerms []string
}

// Resolution is the statement whose rows will be answered from.
type Resolution struct {
	Rows         []sqlexec.Row
	SQL          string
	UsedFallback bool
	Executions   int
}

// Fallback runs the primary statement and, when it fails with a syntax
// class error or comes back suspiciously empty, one simplified retry.
type Fallback struct {
	gen       SQLGenerator
	exec      Executor
	predictor ResultPredictor
	policy    RetryPolicy
	logger    *slog.Logger
}

func NewFallback(gen SQLGenerator, exec Executor, predictor ResultPredictor, policy RetryPolicy) *Fallback {
	if policy.MaxExecutions <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Fallback{
		gen:       gen,
		exec:      exec,
		predictor: predictor,
		policy:    policy,
		logger:    slog.Default().With("component", "fallback"),
	}
}

type attempt struct {
	f        *Fallback
	req      Request
	executed int
}

func (a *attempt) execute(ctx context.Context, statement string) ([]sqlexec.Row, error) {
	a.executed++
	rows, err := a.f.exec.Execute(ctx, statement)
	switch {
	case err == nil:
		observability.IncrementSQLExecution("ok")
	case sqlexec.IsSyntax(err):
		observability.IncrementSQLExecution(string(sqlexec.KindSyntax))
	default:
		observability.IncrementSQLExecution(string(sqlexec.KindExecution))
	}
	return rows, err
}

func (a *attempt) simplified(ctx context.Context) string {
	return a.f.gen.GenerateSimplifiedSQL(ctx, a.req.Question, a.req.SystemPrompt, a.req.ExcludedTerms)
}

// Run resolves the question to rows. Returned errors are *FailureError.
func (f *Fallback) Run(ctx context.Context, req Request) (Resolution, error) {
	a := &attempt{f: f, req: req}

	primary, err := f.gen.GenerateSQL(ctx, req.SQLPrompt)
	if err != nil {
		f.logger.Warn("primary generation failed, trying simplified query", "error", err, "question", req.Question)
		return a.runSimplified(ctx, "generation", err)
	}

	rows, err := a.execute(ctx, primary)
	switch {
	case sqlexec.IsSyntax(err):
		f.logger.Warn("primary statement failed", "error", err, "sql", primary, "question", req.Question)
		if !f.policy.allowsRetry(a.executed) {
			return Resolution{}, exhausted(err)
		}
		return a.retryAfterSyntax(ctx, primary, err)

	case err != nil:
		f.logger.Error("statement execution failed", "error", err, "sql", primary, "question", req.Question)
		return Resolution{}, &FailureError{Stage: StageProceeding, Message: MsgDataAccess, Err: err}
	}

	res := Resolution{Rows: rows, SQL: primary, Executions: a.executed}
	if len(rows) > 0 || !f.predictor.ShouldHaveResults(req.Question) || !f.policy.allowsRetry(a.executed) {
		return res, nil
	}

	retry := a.simplified(ctx)
	if sameStatement(retry, primary) {
		f.logger.Info("simplified query identical to primary, keeping empty result", "question", req.Question)
		observability.IncrementFallback("empty", false)
		return res, nil
	}

	retryRows, err := a.execute(ctx, retry)
	res.Executions = a.executed
	if err != nil || len(retryRows) == 0 {
		f.logger.Info("empty-result retry not adopted", "error", err, "sql", retry, "question", req.Question)
		observability.IncrementFallback("empty", false)
		return res, nil
	}

	observability.IncrementFallback("empty", true)
	return Resolution{Rows: retryRows, SQL: retry, UsedFallback: true, Executions: a.executed}, nil
}

func (a *attempt) retryAfterSyntax(ctx context.Context, primary string, cause error) (Resolution, error) {
	retry := a.simplified(ctx)
	if sameStatement(retry, primary) {
		observability.IncrementFallback("syntax", false)
		return Resolution{}, exhausted(cause)
	}

	rows, err := a.execute(ctx, retry)
	if err != nil {
		a.f.logger.Warn("simplified statement failed", "error", err, "sql", retry, "question", a.req.Question)
		observability.IncrementFallback("syntax", false)
		return Resolution{}, exhausted(err)
	}

	observability.IncrementFallback("syntax", true)
	return Resolution{Rows: rows, SQL: retry, UsedFallback: true, Executions: a.executed}, nil
}

// runSimplified is the path taken when no primary statement exists. The
// simplified generator falls back to its default query, so there is always
// something to execute.
func (a *attempt) runSimplified(ctx context.Context, reason string, cause error) (Resolution, error) {
	statement := a.simplified(ctx)
	rows, err := a.execute(ctx, statement)
	if err != nil {
		a.f.logger.Error("simplified statement failed", "error", err, "cause", cause, "sql", statement, "question", a.req.Question)
		observability.IncrementFallback(reason, false)
		if sqlexec.IsSyntax(err) {
			return Resolution{}, exhausted(err)
		}
		return Resolution{}, &FailureError{Stage: StageProceeding, Message: MsgDataAccess, Err: err}
	}

	observability.IncrementFallback(reason, true)
	return Resolution{Rows: rows, SQL: statement, UsedFallback: true, Executions: a.executed}, nil
}

func exhausted(cause error) error {
	return &FailureError{
		Stage:   StageProceeding,
		Message: MsgReformulate,
		Err:     fmt.Errorf("%w: %w", ErrFallbackExhausted, cause),
	}
}

func sameStatement(a, b string) bool {
	return strings.Join(strings.Fields(a), " ") == strings.Join(strings.Fields(b), " ")
}

// IsExhausted reports whether err ended the fallback chain.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrFallbackExhausted)
}
