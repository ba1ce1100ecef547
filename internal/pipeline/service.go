// Package pipeline answers natural-language questions about the medals
// dataset: guard, generate SQL, execute with fallback, then write the answer.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/medalchat/internal/guardrails"
	"github.com/nikhilbhutani/medalchat/internal/identity"
	"github.com/nikhilbhutani/medalchat/internal/models"
	"github.com/nikhilbhutani/medalchat/internal/observability"
	"github.com/nikhilbhutani/medalchat/internal/prompt"
	"github.com/nikhilbhutani/medalchat/internal/sqlexec"
)

type ServiceDeps struct {
	Guard          *guardrails.Engine
	Prompts        PromptStore
	Terms          TermStore
	Fallback       *Fallback
	Answers        *AnswerWriter
	Facts          *prompt.Facts
	Audit          AuditSink // optional
	DefaultContext string
}

type Service struct {
	guard          *guardrails.Engine
	prompts        PromptStore
	terms          TermStore
	fallback       *Fallback
	answers        *AnswerWriter
	facts          *prompt.Facts
	audit          AuditSink
	defaultContext string
	logger         *slog.Logger
}

func NewService(d ServiceDeps) *Service {
	if d.Guard == nil {
		d.Guard = guardrails.DefaultEngine()
	}
	if d.Facts == nil {
		d.Facts = prompt.MustDefaultFacts()
	}
	if d.DefaultContext == "" {
		d.DefaultContext = prompt.DefaultContext
	}
	return &Service{
		guard:          d.Guard,
		prompts:        d.Prompts,
		terms:          d.Terms,
		fallback:       d.Fallback,
		answers:        d.Answers,
		facts:          d.Facts,
		audit:          d.Audit,
		defaultContext: d.DefaultContext,
		logger:         slog.Default().With("component", "pipeline"),
	}
}

type askOptions struct {
	contextKey string
}

type AskOption func(*askOptions)

// WithPromptContext selects the prompt configuration by context key.
func WithPromptContext(key string) AskOption {
	return func(o *askOptions) { o.contextKey = key }
}

// AnswerQuestion runs the whole pipeline for one question. It never fails:
// errors become a friendly message in the Outcome. history is oldest first.
func (s *Service) AnswerQuestion(ctx context.Context, user identity.User, question string, conversationID *int64, history []models.Turn, opts ...AskOption) Outcome {
	o := askOptions{contextKey: s.defaultContext}
	for _, opt := range opts {
		opt(&o)
	}
	if o.contextKey == "" {
		o.contextKey = s.defaultContext
	}

	traceID, err := uuid.Parse(observability.TraceIDFromContext(ctx))
	if err != nil {
		traceID = uuid.New()
	}

	start := time.Now()
	out := s.run(ctx, user, question, history, o.contextKey)
	out.TraceID = traceID.String()
	elapsed := time.Since(start)

	observability.ObserveQuestion(string(out.Stage), elapsed)
	s.record(ctx, models.QueryAudit{
		TraceID:        traceID,
		UserID:         user.ID,
		ConversationID: conversationID,
		Question:       question,
		Stage:          string(out.Stage),
		SQLUsed:        out.SQLUsed,
		Rejected:       out.Rejected,
		UsedFallback:   out.UsedFallback,
		RowCount:       rowCount(out.Context),
		LatencyMs:      elapsed.Milliseconds(),
		CreatedAt:      start.UTC(),
	})
	return out
}

func (s *Service) run(ctx context.Context, user identity.User, question string, history []models.Turn, contextKey string) Outcome {
	log := s.logger.With("user_id", user.ID, "question", question)

	// received -> guarded
	verdict := s.guard.Classify(question)
	if !verdict.Allowed {
		observability.IncrementGuardRejection(string(verdict.Category))
		stage := StageRejected
		if verdict.Category == guardrails.CategoryStructure {
			stage = StageStructureInfo
		}
		log.Info("question rejected by guard", "category", verdict.Category, "stage", stage)
		return Outcome{Answer: verdict.Message, Rejected: true, Stage: stage, Category: string(verdict.Category)}
	}

	// proceeding
	systemPrompt, found, err := s.prompts.ActivePrompt(ctx, contextKey)
	if err != nil {
		log.Warn("prompt lookup failed, using default", "stage", StageProceeding, "context", contextKey, "error", err)
	}
	if err != nil || !found {
		systemPrompt = prompt.DefaultSystemPrompt
	}

	terms, err := s.terms.ListActive(ctx, user.ID)
	if err != nil {
		log.Error("excluded terms lookup failed", "stage", StageProceeding, "error", err)
		return recovered(MsgDataAccess)
	}

	sqlPrompt := prompt.BuildSQLPrompt(prompt.SQLPromptInput{
		Question:      question,
		SystemPrompt:  systemPrompt,
		History:       history,
		ExcludedTerms: terms,
		Facts:         s.facts,
	})

	res, err := s.fallback.Run(ctx, Request{
		Question:      question,
		SystemPrompt:  systemPrompt,
		SQLPrompt:     sqlPrompt,
		ExcludedTerms: terms,
	})
	if err != nil {
		msg := MsgDataAccess
		var fe *FailureError
		if errors.As(err, &fe) {
			msg = fe.Message
		}
		log.Error("sql resolution failed", "stage", StageProceeding, "error", err)
		return recovered(msg)
	}

	// sql_resolved -> answer_ready
	answer, err := s.answers.Write(ctx, res.Rows, question, systemPrompt, history)
	if err != nil {
		log.Error("answer generation failed", "stage", StageSQLResolved, "sql", res.SQL, "error", err)
		return recovered(answerFailureMessage(question, s.facts))
	}

	sample := make([]sqlexec.Row, min(len(res.Rows), SampleSize))
	copy(sample, res.Rows)
	sql := res.SQL
	return Outcome{
		Answer:  answer,
		SQLUsed: &sql,
		Context: &ContextPayload{
			TotalRows:            len(res.Rows),
			SampleRows:           sample,
			SQLUsed:              res.SQL,
			ExcludedTermsApplied: len(terms),
		},
		UsedFallback: res.UsedFallback,
		Stage:        StageDone,
	}
}

func recovered(msg string) Outcome {
	return Outcome{Answer: msg, Stage: StageErrorRecovered}
}

func (s *Service) record(ctx context.Context, rec models.QueryAudit) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("audit record failed", "trace_id", rec.TraceID, "error", err)
	}
}

func rowCount(c *ContextPayload) int {
	if c == nil {
		return 0
	}
	return c.TotalRows
}
