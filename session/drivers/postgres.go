package drivers

import (
	"context"
	"database/sql"
	"errors"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/jmoiron/sqlx"
)

// PostgresStore implements session.Medium and session.Accounts on the
// accounts and chat_sessions tables. Every query is filtered by owner.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a medium over an open connection. The schema is
// created by the migrations in internal/database.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	ID      string `db:"id"`
	Payload []byte `db:"payload"`
}

// Load implements session.Medium.
func (s *PostgresStore) Load(ctx context.Context, owner, id string) ([]byte, error) {
	var payload []byte
	query := `SELECT payload FROM chat_sessions WHERE owner = $1 AND id = $2`

	err := s.db.GetContext(ctx, &payload, query, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, synister.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save implements session.Medium.
func (s *PostgresStore) Save(ctx context.Context, owner, id string, blob []byte) error {
	query := `
		INSERT INTO chat_sessions (owner, id, payload, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (owner, id) DO UPDATE SET
			payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query, owner, id, blob)
	return err
}

// Remove implements session.Medium.
func (s *PostgresStore) Remove(ctx context.Context, owner, id string) error {
	query := `DELETE FROM chat_sessions WHERE owner = $1 AND id = $2`
	_, err := s.db.ExecContext(ctx, query, owner, id)
	return err
}

// List implements session.Medium.
func (s *PostgresStore) List(ctx context.Context, owner string) (map[string][]byte, error) {
	var rows []sessionRow
	query := `SELECT id, payload FROM chat_sessions WHERE owner = $1`

	if err := s.db.SelectContext(ctx, &rows, query, owner); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Payload
	}
	return out, nil
}

// Exists implements session.Accounts.
func (s *PostgresStore) Exists(ctx context.Context, owner string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE owner = $1)`
	err := s.db.GetContext(ctx, &ok, query, owner)
	return ok, err
}

// Provision implements session.Accounts.
func (s *PostgresStore) Provision(ctx context.Context, owner string) error {
	if owner == "" {
		return synister.ErrOwnerNotFound
	}
	query := `INSERT INTO accounts (owner) VALUES ($1) ON CONFLICT (owner) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, owner)
	return err
}

// Close implements session.Medium.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var (
	_ session.Medium   = (*PostgresStore)(nil)
	_ session.Accounts = (*PostgresStore)(nil)
)
