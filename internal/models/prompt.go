package models

import "time"

type PromptConfig struct {
	ID           int64     `json:"id" db:"id"`
	ContextKey   string    `json:"contexto" db:"contexto"`
	SystemPrompt string    `json:"prompt_sistema" db:"prompt_sistema"`
	Active       bool      `json:"activo" db:"activo"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
