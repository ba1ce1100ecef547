package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user inactive")
	ErrUserExists   = errors.New("username or email already registered")
)

const userColumns = "id, username, email, role, activo, created_at"

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM usuarios WHERE id = $1", id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Lookup returns the caller identity for an active account.
func (s *Store) Lookup(ctx context.Context, id int64) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !u.Active {
		return User{}, ErrUserInactive
	}
	return User{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Create inserts an active account with the default role.
func (s *Store) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO usuarios (username, email, password_hash) VALUES ($1, $2, $3) RETURNING "+userColumns,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Active, &u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Credentials returns the account and its password hash by username.
func (s *Store) Credentials(ctx context.Context, username string) (*models.User, string, error) {
	var (
		u    models.User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+", password_hash FROM usuarios WHERE username = $1", username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Active, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get credentials: %w", err)
	}
	return &u, hash, nil
}
