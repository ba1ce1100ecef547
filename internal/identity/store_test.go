package identity

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
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

var userCols = []string{"id", "username", "email", "role", "activo", "created_at"}

func TestCreateUser(t *testing.T) {
	db, mock := newSQLMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO usuarios (username, email, password_hash) VALUES ($1, $2, $3)")).
		WithArgs("ana", "ana@example.com", "$2a$hash").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(3), "ana", "ana@example.com", "user", true, now))

	u, err := NewStore(db).Create(context.Background(), "ana", "ana@example.com", "$2a$hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 3 || u.Role != "user" || !u.Active {
		t.Fatalf("user = %+v", u)
	}
	assertSQLMock(t, mock)
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery("INSERT INTO usuarios").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	if _, err := NewStore(db).Create(context.Background(), "ana", "ana@example.com", "h"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("err = %v, want ErrUserExists", err)
	}
	assertSQLMock(t, mock)
}

func TestCredentials(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM usuarios WHERE username = $1")).
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows(append(userCols, "password_hash")).
			AddRow(int64(3), "ana", "ana@example.com", "admin", true, time.Now(), "$2a$hash"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM usuarios WHERE username = $1")).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	s := NewStore(db)
	u, hash, err := s.Credentials(context.Background(), "ana")
	if err != nil || u.Role != "admin" || hash != "$2a$hash" {
		t.Fatalf("Credentials = %+v, %q, %v", u, hash, err)
	}
	if _, _, err := s.Credentials(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	assertSQLMock(t, mock)
}

func TestLookupRejectsInactive(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM usuarios WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(3), "ana", "ana@example.com", "user", false, time.Now()))

	if _, err := NewStore(db).Lookup(context.Background(), 3); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("err = %v, want ErrUserInactive", err)
	}
	assertSQLMock(t, mock)
}
