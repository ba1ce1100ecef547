package memory

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/nikhilbhutani/medalchat/internal/models"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

var conversationCols = []string{"id", "usuario_id", "titulo", "activa", "created_at", "updated_at"}

func TestConversationTitle(t *testing.T) {
	if got := ConversationTitle("  ¿Cuántas medallas ganó Brasil?  "); got != "Chat sobre: ¿Cuántas medallas ganó Brasil?..." {
		t.Fatalf("title = %q", got)
	}
	long := strings.Repeat("ñ", 80)
	got := ConversationTitle(long)
	if want := "Chat sobre: " + strings.Repeat("ñ", 50) + "..."; got != want {
		t.Fatalf("long title = %q", got)
	}
}

func TestRecentTurnsOldestFirst(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresStore(db)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sqlText := "SELECT country FROM medallas_olimpicas LIMIT 100"

	mock.ExpectQuery(regexp.QuoteMeta("SELECT tipo, contenido, consulta_sql, created_at FROM (")).
		WithArgs(int64(9), 4).
		WillReturnRows(sqlmock.NewRows([]string{"tipo", "contenido", "consulta_sql", "created_at"}).
			AddRow("user", "Which countries won?", nil, t0).
			AddRow("assistant", "The United States led.", sqlText, t0.Add(time.Second)))

	turns, err := store.RecentTurns(context.Background(), 9, 4)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != models.TurnRoleUser || turns[1].Role != models.TurnRoleAssistant {
		t.Fatalf("turns = %+v", turns)
	}
	if turns[0].SQLExecuted != nil || turns[1].SQLExecuted == nil || *turns[1].SQLExecuted != sqlText {
		t.Fatalf("sql = %v / %v", turns[0].SQLExecuted, turns[1].SQLExecuted)
	}
	assertSQLMock(t, mock)
}

func TestRecentTurnsZeroLimitSkipsQuery(t *testing.T) {
	db, mock := newSQLMock(t)
	turns, err := NewPostgresStore(db).RecentTurns(context.Background(), 9, 0)
	if err != nil || turns == nil || len(turns) != 0 {
		t.Fatalf("RecentTurns(0) = %v, %v", turns, err)
	}
	assertSQLMock(t, mock)
}

func TestGetConversationScopedToUser(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresStore(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM conversaciones WHERE id = $1 AND usuario_id = $2 AND activa")).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows(conversationCols).AddRow(int64(5), int64(1), "Chat sobre: x...", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM conversaciones WHERE id = $1 AND usuario_id = $2 AND activa")).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows(conversationCols))

	c, err := store.GetConversation(context.Background(), 1, 5)
	if err != nil || c.ID != 5 || c.UserID != 1 {
		t.Fatalf("GetConversation(owner) = %+v, %v", c, err)
	}
	if _, err := store.GetConversation(context.Background(), 2, 5); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("GetConversation(other user) error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestDeleteConversationIsSoft(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresStore(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversaciones SET activa = FALSE")).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversaciones SET activa = FALSE")).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteConversation(context.Background(), 1, 5); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if err := store.DeleteConversation(context.Background(), 1, 5); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("second DeleteConversation error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestAppendExchange(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewPostgresStore(db)
	sqlText := "SELECT 1 FROM medallas_olimpicas"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mensajes")).
		WithArgs(int64(3), "user", "How many golds?", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mensajes")).
		WithArgs(int64(3), "assistant", "Brazil won 3.", sqlText).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversaciones SET updated_at = now()")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := store.AppendExchange(context.Background(), 3, "How many golds?", "Brazil won 3.", &sqlText)
	if err != nil || id != 11 {
		t.Fatalf("AppendExchange = %d, %v", id, err)
	}
	assertSQLMock(t, mock)
}

func TestAppendExchangeRollsBackOnFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mensajes")).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO mensajes")).WillReturnError(boom)
	mock.ExpectRollback()

	if _, err := NewPostgresStore(db).AppendExchange(context.Background(), 3, "q", "a", nil); !errors.Is(err, boom) {
		t.Fatalf("AppendExchange error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestAssistantMessageNotFound(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN conversaciones c ON c.id = m.conversacion_id")).
		WithArgs(int64(40), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversacion_id", "tipo", "contenido", "consulta_sql", "created_at"}))

	if _, err := NewPostgresStore(db).AssistantMessage(context.Background(), 1, 40); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("AssistantMessage error = %v", err)
	}
	assertSQLMock(t, mock)
}
