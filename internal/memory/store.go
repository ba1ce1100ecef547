// Package memory persists conversations and replays their recent turns
// into prompts.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")
var ErrMessageNotFound = errors.New("message not found")

const titleQuestionLimit = 50

// ConversationTitle derives a new conversation's title from its first
// question.
func ConversationTitle(question string) string {
	r := []rune(strings.TrimSpace(question))
	if len(r) > titleQuestionLimit {
		r = r[:titleQuestionLimit]
	}
	return "Chat sobre: " + string(r) + "..."
}

// PostgresStore keeps conversations in conversaciones and their messages in
// mensajes. Every accessor taking a userID only sees that user's active
// conversations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const conversationColumns = "id, usuario_id, titulo, activa, created_at, updated_at"

func scanConversation(row interface{ Scan(...any) error }) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, userID int64, title string) (*models.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx,
		`INSERT INTO conversaciones (usuario_id, titulo) VALUES ($1, $2)
		 RETURNING `+conversationColumns,
		userID, title,
	))
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, userID, id int64) (*models.Conversation, error) {
	c, err := scanConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversaciones
		 WHERE id = $1 AND usuario_id = $2 AND activa`,
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", id, err)
	}
	return c, nil
}

// ListConversations returns the user's conversations, most recently active
// first.
func (s *PostgresStore) ListConversations(ctx context.Context, userID int64, limit, offset int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversationColumns+` FROM conversaciones
		 WHERE usuario_id = $1 AND activa
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RenameConversation(ctx context.Context, userID, id int64, title string) error {
	return s.updateConversation(ctx,
		`UPDATE conversaciones SET titulo = $3, updated_at = now()
		 WHERE id = $1 AND usuario_id = $2 AND activa`,
		id, userID, title,
	)
}

// DeleteConversation hides the conversation; its messages are kept.
func (s *PostgresStore) DeleteConversation(ctx context.Context, userID, id int64) error {
	return s.updateConversation(ctx,
		`UPDATE conversaciones SET activa = FALSE, updated_at = now()
		 WHERE id = $1 AND usuario_id = $2 AND activa`,
		id, userID,
	)
}

func (s *PostgresStore) updateConversation(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// RecentTurns returns the last limit messages of a conversation, oldest
// first.
func (s *PostgresStore) RecentTurns(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return []models.Turn{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tipo, contenido, consulta_sql, created_at FROM (
		     SELECT id, tipo, contenido, consulta_sql, created_at FROM mensajes
		     WHERE conversacion_id = $1
		     ORDER BY created_at DESC, id DESC LIMIT $2
		 ) recent ORDER BY created_at, id`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.SQLExecuted, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

const messageColumns = "m.id, m.conversacion_id, m.tipo, m.contenido, m.consulta_sql, m.created_at"

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.SQLExecuted, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Messages returns every message of one of the user's conversations,
// oldest first.
func (s *PostgresStore) Messages(ctx context.Context, userID, conversationID int64) ([]models.Message, error) {
	if _, err := s.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM mensajes m
		 WHERE m.conversacion_id = $1 ORDER BY m.created_at, m.id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// AppendExchange stores a question and its answer, touches the
// conversation and returns the answer's message ID.
func (s *PostgresStore) AppendExchange(ctx context.Context, conversationID int64, question, answer string, sqlUsed *string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO mensajes (conversacion_id, tipo, contenido, consulta_sql) VALUES ($1, $2, $3, $4) RETURNING id`
	var questionID, answerID int64
	if err := tx.QueryRowContext(ctx, insert, conversationID, models.TurnRoleUser, question, nil).Scan(&questionID); err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	if err := tx.QueryRowContext(ctx, insert, conversationID, models.TurnRoleAssistant, answer, sqlUsed).Scan(&answerID); err != nil {
		return 0, fmt.Errorf("insert answer: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversaciones SET updated_at = now() WHERE id = $1`, conversationID,
	); err != nil {
		return 0, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return answerID, nil
}

type Stats struct {
	Conversations int        `json:"total_conversaciones"`
	Messages      int        `json:"total_mensajes"`
	LastActivity  *time.Time `json:"fecha_ultima_actividad"`
}

// Stats counts the user's active conversations and their messages.
func (s *PostgresStore) Stats(ctx context.Context, userID int64) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT c.id), COUNT(m.id), MAX(c.updated_at)
		 FROM conversaciones c
		 LEFT JOIN mensajes m ON m.conversacion_id = c.id
		 WHERE c.usuario_id = $1 AND c.activa`,
		userID,
	).Scan(&st.Conversations, &st.Messages, &st.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("conversation stats: %w", err)
	}
	return &st, nil
}

// AssistantMessage loads one of the user's assistant messages.
func (s *PostgresStore) AssistantMessage(ctx context.Context, userID, messageID int64) (*models.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM mensajes m
		 JOIN conversaciones c ON c.id = m.conversacion_id
		 WHERE m.id = $1 AND c.usuario_id = $2 AND m.tipo = 'assistant'`,
		messageID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", messageID, err)
	}
	return m, nil
}
