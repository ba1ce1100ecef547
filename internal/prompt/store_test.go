package prompt

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
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

var promptColumns = []string{"id", "contexto", "prompt_sistema", "activo", "updated_at"}

func TestStoreActivePrompt(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT prompt_sistema FROM configuraciones_prompt")).
		WithArgs("deportivo").
		WillReturnRows(sqlmock.NewRows([]string{"prompt_sistema"}).AddRow("Eres un analista deportivo."))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT prompt_sistema FROM configuraciones_prompt")).
		WithArgs("finanzas").
		WillReturnRows(sqlmock.NewRows([]string{"prompt_sistema"}))

	text, found, err := store.ActivePrompt(context.Background(), "deportivo")
	if err != nil || !found || text != "Eres un analista deportivo." {
		t.Fatalf("ActivePrompt(deportivo) = %q, %v, %v", text, found, err)
	}

	text, found, err = store.ActivePrompt(context.Background(), "finanzas")
	if err != nil || found || text != "" {
		t.Fatalf("ActivePrompt(finanzas) = %q, %v, %v", text, found, err)
	}
	assertSQLMock(t, mock)
}

func TestStoreActivePromptError(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)
	boom := errors.New("connection refused")

	mock.ExpectQuery("SELECT prompt_sistema").WillReturnError(boom)

	if _, _, err := store.ActivePrompt(context.Background(), "deportivo"); !errors.Is(err, boom) {
		t.Fatalf("ActivePrompt() error = %v, want wrapped %v", err, boom)
	}
	assertSQLMock(t, mock)
}

func TestStoreCreateDeactivatesPrevious(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE configuraciones_prompt SET activo = FALSE")).
		WithArgs("deportivo").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO configuraciones_prompt")).
		WithArgs("deportivo", "Eres un experto olímpico.").
		WillReturnRows(sqlmock.NewRows(promptColumns).AddRow(int64(4), "deportivo", "Eres un experto olímpico.", true, now))
	mock.ExpectCommit()

	p, err := store.Create(context.Background(), CreateRequest{ContextKey: " ", SystemPrompt: "Eres un experto olímpico."})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID != 4 || p.ContextKey != "deportivo" || !p.Active || !p.UpdatedAt.Equal(now) {
		t.Fatalf("Create() = %+v", p)
	}
	assertSQLMock(t, mock)
}

func TestStoreCreateRejectsPlaceholders(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)

	for _, text := range []string{"", "   ", "Use {{schema}} wisely"} {
		if _, err := store.Create(context.Background(), CreateRequest{SystemPrompt: text}); !errors.Is(err, ErrInvalidPrompt) {
			t.Fatalf("Create(%q) error = %v, want ErrInvalidPrompt", text, err)
		}
	}
	assertSQLMock(t, mock)
}

func TestStoreUpdateActivates(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)
	active := true
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE configuraciones_prompt")).
		WithArgs(int64(2), nil, true).
		WillReturnRows(sqlmock.NewRows(promptColumns).AddRow(int64(2), "deportivo", "old prompt", true, now))
	mock.ExpectExec(regexp.QuoteMeta("WHERE contexto = $1 AND id <> $2 AND activo")).
		WithArgs("deportivo", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := store.Update(context.Background(), 2, UpdateRequest{Active: &active})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if p.ID != 2 || !p.Active {
		t.Fatalf("Update() = %+v", p)
	}
	assertSQLMock(t, mock)
}

func TestStoreUpdateNotFound(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)
	text := "new prompt"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE configuraciones_prompt")).
		WithArgs(int64(99), "new prompt", nil).
		WillReturnRows(sqlmock.NewRows(promptColumns))
	mock.ExpectRollback()

	if _, err := store.Update(context.Background(), 99, UpdateRequest{SystemPrompt: &text}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
	assertSQLMock(t, mock)
}

func TestStoreList(t *testing.T) {
	db, mock := newSQLMock(t)
	store := NewStore(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM configuraciones_prompt ORDER BY contexto")).
		WillReturnRows(sqlmock.NewRows(promptColumns).
			AddRow(int64(1), "deportivo", "a", false, now).
			AddRow(int64(2), "deportivo", "b", true, now))

	got, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[1].SystemPrompt != "b" || got[0].Active {
		t.Fatalf("List() = %+v", got)
	}
	assertSQLMock(t, mock)
}
