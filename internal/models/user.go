package models

import "time"

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	Active    bool      `json:"active" db:"activo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ExcludedTerm is a per-user redaction term. Term is stored lower-cased.
type ExcludedTerm struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"usuario_id" db:"usuario_id"`
	Term      string    `json:"termino" db:"termino"`
	Active    bool      `json:"activo" db:"activo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
