package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const createPartitionsTable = `
CREATE TABLE IF NOT EXISTS partitions (
	name text PRIMARY KEY,
	body jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// PgStore keeps each partition as a single jsonb row, so documents stay
// inspectable with plain SQL while the load-all/save-all contract is
// unchanged from FileStore.
type PgStore struct {
	conn *sql.DB
}

func NewPgStore(dsn string) (*PgStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec(createPartitionsTable); err != nil {
		return nil, fmt.Errorf("create partitions table: %w", err)
	}

	return &PgStore{conn: db}, nil
}

func (s *PgStore) LoadAll(partition string) ([]byte, error) {
	row := s.conn.QueryRow("SELECT body FROM partitions WHERE name = $1", partition)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read partition %q: %w", partition, err)
	}

	return data, nil
}

func (s *PgStore) SaveAll(partition string, data []byte) error {
	_, err := s.conn.Exec(
		"INSERT INTO partitions (name, body, updated_at) VALUES ($1, $2, now()) "+
			"ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()",
		partition,
		data,
	)
	if err != nil {
		return fmt.Errorf("write partition %q: %w", partition, err)
	}

	return nil
}

func (s *PgStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
