package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

// scriptedCompleter answers by prompt kind, so one fake can drive the
// primary, simplified and answer calls of a single question.
type scriptedCompleter struct {
	primary    string
	primaryErr error
	simplified string
	answer     string
	answerErr  error

	mu      sync.Mutex
	prompts map[string][]string
}

const (
	kindPrimary    = "primary"
	kindSimplified = "simplified"
	kindAnswer     = "answer"
)

func (c *scriptedCompleter) Complete(_ context.Context, p string, _ int, _ float64) (string, error) {
	kind := ""
	switch {
	case strings.Contains(p, "Write a natural-language answer"):
		kind = kindAnswer
	case strings.Contains(p, "Write a simple PostgreSQL SELECT"):
		kind = kindSimplified
	case strings.Contains(p, "Write one PostgreSQL query"):
		kind = kindPrimary
	default:
		return "", errors.New("unexpected prompt")
	}

	c.mu.Lock()
	if c.prompts == nil {
		c.prompts = map[string][]string{}
	}
	c.prompts[kind] = append(c.prompts[kind], p)
	c.mu.Unlock()

	switch kind {
	case kindAnswer:
		return c.answer, c.answerErr
	case kindSimplified:
		return c.simplified, nil
	default:
		return c.primary, c.primaryErr
	}
}

func (c *scriptedCompleter) calls(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts[kind])
}

func (c *scriptedCompleter) total() int {
	return c.calls(kindPrimary) + c.calls(kindSimplified) + c.calls(kindAnswer)
}

func (c *scriptedCompleter) lastPrompt(kind string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps := c.prompts[kind]
	if len(ps) == 0 {
		return ""
	}
	return ps[len(ps)-1]
}

type execResult struct {
	rows []sqlexec.Row
	err  error
}

// scriptedExecutor returns canned results per statement and records what
// ran. Unknown statements return no rows.
type scriptedExecutor struct {
	results map[string]execResult
	ran     []string
}

func (e *scriptedExecutor) Execute(_ context.Context, statement string) ([]sqlexec.Row, error) {
	e.ran = append(e.ran, statement)
	r, ok := e.results[statement]
	if !ok {
		return []sqlexec.Row{}, nil
	}
	return r.rows, r.err
}

type fakeTerms struct {
	terms []string
	err   error
}

func (f fakeTerms) ListActive(context.Context, int64) ([]string, error) { return f.terms, f.err }

type fakePrompts struct {
	text  string
	found bool
	err   error
}

func (f fakePrompts) ActivePrompt(context.Context, string) (string, bool, error) {
	return f.text, f.found, f.err
}

type auditRecorder struct {
	records []models.QueryAudit
}

func (a *auditRecorder) Record(_ context.Context, rec models.QueryAudit) error {
	a.records = append(a.records, rec)
	return nil
}

func syntaxErr(msg string) error {
	return &sqlexec.Error{Kind: sqlexec.KindSyntax, Code: "42601", Err: errors.New(msg)}
}

func executionErr(msg string) error {
	return &sqlexec.Error{Kind: sqlexec.KindExecution, Code: "42501", Err: errors.New(msg)}
}

func rowsOf(n int) []sqlexec.Row {
	rows := make([]sqlexec.Row, n)
	for i := range rows {
		rows[i] = sqlexec.Row{{Name: "country", Value: "Brazil"}, {Name: "total", Value: int64(i + 1)}}
	}
	return rows
}
