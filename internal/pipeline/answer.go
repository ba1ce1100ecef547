package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/llm"
	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/nl2sql"
	"github.com/nikhilbhutani/medalchat/internal/prompt"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

const AnswerMaxTokens = 1000

// AnswerWriter turns result rows into prose with one LLM call.
type AnswerWriter struct {
	llm Completer
}

func NewAnswerWriter(c Completer) *AnswerWriter {
	return &AnswerWriter{llm: c}
}

// Write returns the trimmed completion. Failures wrap
// nl2sql.ErrGenerationFailed or are nl2sql.ErrGenerationUnavailable.
func (w *AnswerWriter) Write(ctx context.Context, rows []sqlexec.Row, question, systemPrompt string, history []models.Turn) (string, error) {
	if w.llm == nil {
		return "", nl2sql.ErrGenerationUnavailable
	}

	p := prompt.BuildAnswerPrompt(prompt.AnswerPromptInput{
		Question:     question,
		Rows:         rows,
		SystemPrompt: systemPrompt,
		History:      history,
	})

	text, err := w.llm.Complete(ctx, p, AnswerMaxTokens, 0)
	if errors.Is(err, llm.ErrNoProvider) {
		return "", nl2sql.ErrGenerationUnavailable
	}
	if err != nil {
		return "", &nl2sql.GenerationError{Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &nl2sql.GenerationError{Err: errors.New("empty answer")}
	}
	return text, nil
}
