package models

import "time"

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// Turn is one message of a conversation as fed back into prompts.
type Turn struct {
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	SQLExecuted *string   `json:"sql_executed,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type Conversation struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"usuario_id" db:"usuario_id"`
	Title     string    `json:"titulo" db:"titulo"`
	Active    bool      `json:"activa" db:"activa"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Message is a stored conversation message.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversacion_id" db:"conversacion_id"`
	Role           string    `json:"tipo" db:"tipo"`
	Content        string    `json:"contenido" db:"contenido"`
	SQLExecuted    *string   `json:"consulta_sql,omitempty" db:"consulta_sql"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Turn converts a stored message into its prompt form.
func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content, SQLExecuted: m.SQLExecuted, Timestamp: m.CreatedAt}
}
