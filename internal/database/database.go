// Package database persists extraction runs to PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

func NewConnection(ctx context.Context, connectStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id          BIGSERIAL PRIMARY KEY,
	file_name   TEXT        NOT NULL,
	checksum    TEXT        NOT NULL,
	slide_count INTEGER     NOT NULL,
	tags        TEXT[]      NOT NULL DEFAULT '{}',
	slides      JSONB       NOT NULL,
	warnings    JSONB       NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS extractions_checksum_idx ON extractions (checksum);
`

// EnsureSchema creates the extractions table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
