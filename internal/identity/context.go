// Package identity carries the authenticated caller through request
// contexts and loads accounts from usuarios.
package identity

import (
	"context"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

// User is the caller as trusted by the pipeline.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

type contextKey string

const userKey contextKey = "user"

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}
