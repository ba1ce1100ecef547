// Package filters manages each user's excluded terms.
package filters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

const MaxTermLength = 100

var (
	ErrInvalidTerm   = errors.New("invalid excluded term")
	ErrDuplicateTerm = errors.New("term already excluded")
	ErrTermNotFound  = errors.New("excluded term not found")
)

// NormalizeTerm trims and lower-cases a term.
func NormalizeTerm(term string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return "", fmt.Errorf("%w: term is empty", ErrInvalidTerm)
	}
	if utf8.RuneCountInString(t) > MaxTermLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidTerm, MaxTermLength)
	}
	return t, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListActive returns the user's active terms in insertion order.
func (s *Store) ListActive(ctx context.Context, userID int64) ([]string, error) {
	terms, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Term
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, userID int64) ([]models.ExcludedTerm, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, usuario_id, termino, activo, created_at FROM terminos_excluidos
		 WHERE usuario_id = $1 AND activo ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list excluded terms: %w", err)
	}
	defer rows.Close()

	out := []models.ExcludedTerm{}
	for rows.Next() {
		var t models.ExcludedTerm
		if err := rows.Scan(&t.ID, &t.UserID, &t.Term, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan excluded term: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Add stores term for the user. A previously removed term is reactivated;
// an active one is ErrDuplicateTerm.
func (s *Store) Add(ctx context.Context, userID int64, term string) (*models.ExcludedTerm, error) {
	norm, err := NormalizeTerm(term)
	if err != nil {
		return nil, err
	}

	var t models.ExcludedTerm
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO terminos_excluidos (usuario_id, termino) VALUES ($1, $2)
		 ON CONFLICT (usuario_id, termino) DO UPDATE
		     SET activo = TRUE, created_at = now()
		     WHERE NOT terminos_excluidos.activo
		 RETURNING id, usuario_id, termino, activo, created_at`,
		userID, norm,
	).Scan(&t.ID, &t.UserID, &t.Term, &t.Active, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateTerm
	}
	if err != nil {
		return nil, fmt.Errorf("add excluded term: %w", err)
	}
	return &t, nil
}

// Deactivate soft-deletes one of the user's terms.
func (s *Store) Deactivate(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE terminos_excluidos SET activo = FALSE
		 WHERE id = $1 AND usuario_id = $2 AND activo`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deactivate excluded term: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate excluded term: %w", err)
	}
	if n == 0 {
		return ErrTermNotFound
	}
	return nil
}
