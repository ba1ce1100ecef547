// Package nl2sql turns prompts into SQL statements through an LLM completer.
package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/llm"
	"github.com/nikhilbhutani/medalchat/internal/prompt"
)

const (
	SQLMaxTokens           = 1000
	SimplifiedSQLMaxTokens = 500
)

// DefaultSafeQuery is the last-resort statement used when simplified
// generation fails: the ten countries with the most gold medals.
const DefaultSafeQuery = `SELECT country, COUNT(*) AS gold_medals
FROM medallas_olimpicas
WHERE medal = 'Gold'
GROUP BY country
ORDER BY gold_medals DESC
LIMIT 10`

var (
	ErrGenerationUnavailable = errors.New("sql generation unavailable: no LLM client configured")
	ErrGenerationFailed      = errors.New("sql generation failed")
)

// GenerationError wraps the completer failure behind ErrGenerationFailed.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrGenerationFailed, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// Completer is satisfied by *llm.Completer.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

type Generator struct {
	llm    Completer
	logger *slog.Logger
}

// NewGenerator accepts a nil completer; every call then reports
// ErrGenerationUnavailable.
func NewGenerator(c Completer) *Generator {
	return &Generator{
		llm:    c,
		logger: slog.Default().With("component", "nl2sql"),
	}
}

// GenerateSQL sends a fully built SQL prompt at temperature 0 and returns
// the extracted statement.
func (g *Generator) GenerateSQL(ctx context.Context, sqlPrompt string) (string, error) {
	return g.generate(ctx, sqlPrompt, SQLMaxTokens)
}

// GenerateSimplifiedSQL asks for a simpler statement. It never fails: when
// the LLM call does, DefaultSafeQuery is returned.
func (g *Generator) GenerateSimplifiedSQL(ctx context.Context, question, systemPrompt string, excludedTerms []string) string {
	p := prompt.BuildSimplifiedSQLPrompt(question, systemPrompt, excludedTerms)
	statement, err := g.generate(ctx, p, SimplifiedSQLMaxTokens)
	if err != nil {
		g.logger.Warn("simplified generation failed, using default query", "error", err)
		return DefaultSafeQuery
	}
	return statement
}

func (g *Generator) generate(ctx context.Context, p string, maxTokens int) (string, error) {
	if g.llm == nil {
		return "", ErrGenerationUnavailable
	}

	raw, err := g.llm.Complete(ctx, p, maxTokens, 0)
	if errors.Is(err, llm.ErrNoProvider) {
		return "", ErrGenerationUnavailable
	}
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	statement := ExtractSQL(raw)
	if statement == "" {
		return "", &GenerationError{Err: errors.New("empty completion")}
	}
	return statement, nil
}

var (
	sqlFence = regexp.MustCompile("(?is)```sql[ \\t]*\\n?(.*?)```")
	anyFence = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\n?(.*?)```")
)

// ExtractSQL returns the contents of the first ```sql block, else of the
// first fenced block, else the trimmed text.
func ExtractSQL(raw string) string {
	if m := sqlFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}
