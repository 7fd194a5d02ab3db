package sessionstore

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStorage(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresStorage(sqlx.NewDb(db, "postgres"), ""), mock
}

func TestPostgresLoad(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT record FROM client_sessions`).
		WithArgs(StorageKey).
		WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow([]byte(`{"access_token":"A"}`)))

	data, err := s.Load(context.Background())
	if err != nil || string(data) != `{"access_token":"A"}` {
		t.Fatalf("Load() = %q, %v", data, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresLoadAbsent(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(`SELECT record FROM client_sessions`).
		WithArgs(StorageKey).
		WillReturnError(sql.ErrNoRows)

	data, err := s.Load(context.Background())
	if err != nil || data != nil {
		t.Fatalf("Load() = %q, %v, want nil, nil", data, err)
	}
}

func TestPostgresSaveUpserts(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectExec(`INSERT INTO client_sessions`).
		WithArgs(StorageKey, []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresClear(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectExec(`DELETE FROM client_sessions`).
		WithArgs(StorageKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() err = %v", err)
	}
}

func TestPostgresCustomKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s := NewPostgresStorage(sqlx.NewDb(db, "postgres"), "worker_7")

	mock.ExpectQuery(`SELECT record FROM client_sessions`).
		WithArgs("worker_7").
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresEnsureSchema(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS client_sessions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() err = %v", err)
	}
}
