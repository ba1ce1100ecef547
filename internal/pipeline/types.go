package pipeline

import (
	"context"

	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

// Stage is a state of the question pipeline. Outcome.Stage holds the
// terminal one.
type Stage string

const (
	StageReceived       Stage = "received"
	StageGuarded        Stage = "guarded"
	StageRejected       Stage = "rejected"
	StageStructureInfo  Stage = "structure_info"
	StageProceeding     Stage = "proceeding"
	StageSQLResolved    Stage = "sql_resolved"
	StageAnswerReady    Stage = "answer_ready"
	StageDone           Stage = "done"
	StageErrorRecovered Stage = "error_recovered"
)

// SampleSize is how many rows ContextPayload carries.
const SampleSize = 5

// ContextPayload summarizes the data behind an answer for the client's
// details view.
type ContextPayload struct {
	TotalRows            int           `json:"total_resultados"`
	SampleRows           []sqlexec.Row `json:"muestra_datos"`
	SQLUsed              string        `json:"sql_ejecutado"`
	ExcludedTermsApplied int           `json:"terminos_excluidos_aplicados"`
}

// Outcome is the result of one question. Every path through the pipeline
// produces one.
type Outcome struct {
	Answer       string          `json:"answer"`
	SQLUsed      *string         `json:"sql_used,omitempty"`
	Context      *ContextPayload `json:"context,omitempty"`
	Rejected     bool            `json:"rejected"`
	UsedFallback bool            `json:"used_fallback"`
	Stage        Stage           `json:"stage"`
	Category     string          `json:"category,omitempty"`
	TraceID      string          `json:"trace_id"`
}

// Failed reports whether the outcome carries an error message instead of an
// answer.
func (o Outcome) Failed() bool {
	return o.Rejected || o.Stage == StageErrorRecovered
}

type TermStore interface {
	ListActive(ctx context.Context, userID int64) ([]string, error)
}

type PromptStore interface {
	ActivePrompt(ctx context.Context, contextKey string) (string, bool, error)
}

type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

type Executor interface {
	Execute(ctx context.Context, statement string) ([]sqlexec.Row, error)
}

type SQLGenerator interface {
	GenerateSQL(ctx context.Context, sqlPrompt string) (string, error)
	GenerateSimplifiedSQL(ctx context.Context, question, systemPrompt string, excludedTerms []string) string
}

type ResultPredictor interface {
	ShouldHaveResults(question string) bool
}

// AuditSink receives one record per question. Implementations must not
// block the caller for long.
type AuditSink interface {
	Record(ctx context.Context, rec models.QueryAudit) error
}
