package prompt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

var (
	ErrNotFound      = errors.New("prompt configuration not found")
	ErrInvalidPrompt = errors.New("invalid prompt configuration")
)

// Store persists system prompts in configuraciones_prompt. At most one
// configuration per context is active.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ActivePrompt returns the newest active system prompt for contextKey. The
// boolean is false when none is configured.
func (s *Store) ActivePrompt(ctx context.Context, contextKey string) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT prompt_sistema FROM configuraciones_prompt
		 WHERE contexto = $1 AND activo
		 ORDER BY updated_at DESC LIMIT 1`,
		contextKey,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get active prompt %s: %w", contextKey, err)
	}
	return text, true, nil
}

func (s *Store) List(ctx context.Context) ([]models.PromptConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contexto, prompt_sistema, activo, updated_at
		 FROM configuraciones_prompt ORDER BY contexto, updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	configs := []models.PromptConfig{}
	for rows.Next() {
		var p models.PromptConfig
		if err := rows.Scan(&p.ID, &p.ContextKey, &p.SystemPrompt, &p.Active, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		configs = append(configs, p)
	}
	return configs, rows.Err()
}

type CreateRequest struct {
	ContextKey   string `json:"contexto"`
	SystemPrompt string `json:"prompt_sistema"`
}

// Create stores a new active prompt for the context and deactivates the
// previous one.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.PromptConfig, error) {
	req.ContextKey = strings.TrimSpace(req.ContextKey)
	if req.ContextKey == "" {
		req.ContextKey = DefaultContext
	}
	if err := validateSystemPrompt(req.SystemPrompt); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE configuraciones_prompt SET activo = FALSE, updated_at = now()
		 WHERE contexto = $1 AND activo`,
		req.ContextKey,
	); err != nil {
		return nil, fmt.Errorf("deactivate prompts: %w", err)
	}

	var p models.PromptConfig
	err = tx.QueryRowContext(ctx,
		`INSERT INTO configuraciones_prompt (contexto, prompt_sistema, activo)
		 VALUES ($1, $2, TRUE)
		 RETURNING id, contexto, prompt_sistema, activo, updated_at`,
		req.ContextKey, req.SystemPrompt,
	).Scan(&p.ID, &p.ContextKey, &p.SystemPrompt, &p.Active, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &p, nil
}

type UpdateRequest struct {
	SystemPrompt *string `json:"prompt_sistema,omitempty"`
	Active       *bool   `json:"activo,omitempty"`
}

// Update changes a configuration in place. Activating one deactivates the
// other configurations of the same context.
func (s *Store) Update(ctx context.Context, id int64, req UpdateRequest) (*models.PromptConfig, error) {
	if req.SystemPrompt != nil {
		if err := validateSystemPrompt(*req.SystemPrompt); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var p models.PromptConfig
	err = tx.QueryRowContext(ctx,
		`UPDATE configuraciones_prompt
		 SET prompt_sistema = COALESCE($2, prompt_sistema),
		     activo = COALESCE($3, activo),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING id, contexto, prompt_sistema, activo, updated_at`,
		id, req.SystemPrompt, req.Active,
	).Scan(&p.ID, &p.ContextKey, &p.SystemPrompt, &p.Active, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update prompt %d: %w", id, err)
	}

	if req.Active != nil && *req.Active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE configuraciones_prompt SET activo = FALSE
			 WHERE contexto = $1 AND id <> $2 AND activo`,
			p.ContextKey, p.ID,
		); err != nil {
			return nil, fmt.Errorf("deactivate siblings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &p, nil
}

// System prompts are inserted verbatim into the pipeline templates, so they
// may not carry placeholders of their own.
func validateSystemPrompt(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: prompt_sistema is required", ErrInvalidPrompt)
	}
	if vars := ExtractVariables(text); len(vars) > 0 {
		return fmt.Errorf("%w: unexpected template variables %s", ErrInvalidPrompt, strings.Join(vars, ", "))
	}
	return nil
}
