package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS client_sessions (
	storage_key TEXT PRIMARY KEY,
	record      BYTEA NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStorage persists the session record in a Postgres table.
type PostgresStorage struct {
	db  *sqlx.DB
	key string
}

// NewPostgresStorage creates a Postgres-backed storage over an existing
// connection. An empty key uses StorageKey.
func NewPostgresStorage(db *sqlx.DB, key string) *PostgresStorage {
	if key == "" {
		key = StorageKey
	}
	return &PostgresStorage{db: db, key: key}
}

// OpenPostgresStorage connects to Postgres and ensures the session table
// exists.
func OpenPostgresStorage(ctx context.Context, dsn, key string) (*PostgresStorage, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := NewPostgresStorage(db, key)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the session table if it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, sessionSchema); err != nil {
		return fmt.Errorf("create session table: %w", err)
	}
	return nil
}

// Load implements Storage.
func (p *PostgresStorage) Load(ctx context.Context) ([]byte, error) {
	var record []byte
	err := p.db.GetContext(ctx, &record,
		`SELECT record FROM client_sessions WHERE storage_key = $1`, p.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return record, nil
}

// Save implements Storage.
func (p *PostgresStorage) Save(ctx context.Context, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO client_sessions (storage_key, record, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (storage_key)
		 DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
		p.key, data)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear implements Storage.
func (p *PostgresStorage) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM client_sessions WHERE storage_key = $1`, p.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (p *PostgresStorage) Close() error {
	return p.db.Close()
}
