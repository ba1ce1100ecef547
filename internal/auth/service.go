package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nikhilbhutani/medalchat/internal/identity"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRegistration = errors.New("invalid registration")
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores bytes past 72
	minUsernameLen = 3
	maxUsernameLen = 50
)

// Accounts persists users and their password hashes.
type Accounts interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	Credentials(ctx context.Context, username string) (*models.User, string, error)
}

type Service struct {
	accounts  Accounts
	secret    string
	ttl       time.Duration
	cost      int
	dummy     []byte
	dummyOnce sync.Once
	logger    *slog.Logger
}

func NewService(accounts Accounts, secret string, ttl time.Duration) *Service {
	return &Service{
		accounts: accounts,
		secret:   secret,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		logger:   slog.Default().With("component", "auth"),
	}
}

// Register creates an account with the user role. Roles are only changed
// by an administrator.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if n := len([]rune(username)); n < minUsernameLen || n > maxUsernameLen {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidRegistration, minUsernameLen, maxUsernameLen)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidRegistration)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d-%d bytes", ErrInvalidRegistration, minPasswordLen, maxPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.accounts.Create(ctx, username, email, string(hash))
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Login verifies the password and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	u, hash, err := s.accounts.Credentials(ctx, strings.TrimSpace(username))
	if errors.Is(err, identity.ErrUserNotFound) {
		// Keep timing close to the found-user path.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil || !u.Active {
		return "", nil, ErrInvalidCredentials
	}

	token, err := IssueToken(s.secret, identity.User{ID: u.ID, Username: u.Username, Role: u.Role}, s.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummy
}
