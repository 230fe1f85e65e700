package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docstamp/internal/audit"
)

// Schema creates the generation log table.
const Schema = `
CREATE TABLE IF NOT EXISTS generation_logs (
	id          BIGSERIAL PRIMARY KEY,
	actor       TEXT NOT NULL,
	national_id TEXT NOT NULL,
	first_name  TEXT NOT NULL,
	last_name   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS generation_logs_created_at_idx ON generation_logs (created_at DESC, id DESC);
`

// Store persists the generation log in PostgreSQL. Each operation is a single
// statement, so appends and clears never interleave partially.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	query := `
		INSERT INTO generation_logs (actor, national_id, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		rec.Actor,
		rec.NationalID,
		rec.FirstName,
		rec.LastName,
		rec.Timestamp,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}

func (s *Store) ListDescending(ctx context.Context) ([]*audit.Record, error) {
	query := `
		SELECT id, actor, national_id, first_name, last_name, created_at
		FROM generation_logs
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query generation logs: %w", err)
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		var rec audit.Record
		if err := rows.Scan(&rec.ID, &rec.Actor, &rec.NationalID, &rec.FirstName, &rec.LastName, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan generation log: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation logs: %w", err)
	}
	return records, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM generation_logs`); err != nil {
		return fmt.Errorf("clear generation logs: %w", err)
	}
	return nil
}
