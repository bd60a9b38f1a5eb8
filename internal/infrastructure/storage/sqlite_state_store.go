package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ParcelScanner/internal/domain"
	"ParcelScanner/internal/ports"
)

// SQLiteStateStore keeps the per-jurisdiction ingestion checkpoints in a
// local sqlite file. Rows are partitioned by jurisdiction key, so runs for
// different jurisdictions never contend.
type SQLiteStateStore struct {
	db *sql.DB
}

var _ ports.StateStore = (*SQLiteStateStore)(nil)

// OpenStateStore opens (or creates) the state database at path.
func OpenStateStore(path string) (*SQLiteStateStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	db.SetMaxOpenConns(1)
	return NewSQLiteStateStore(db)
}

// NewSQLiteStateStore wires an existing connection and migrates the schema.
func NewSQLiteStateStore(db *sql.DB) (*SQLiteStateStore, error) {
	s := &SQLiteStateStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStateStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS ingestion_state (
		jurisdiction_id TEXT PRIMARY KEY,
		last_digest TEXT NOT NULL,
		last_run TEXT NOT NULL,
		records_processed INTEGER NOT NULL DEFAULT 0,
		records_emitted INTEGER NOT NULL DEFAULT 0
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("migrate state store: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *SQLiteStateStore) Close() error {
	return s.db.Close()
}

// Load fetches the checkpoint for one jurisdiction; (nil, nil) when none
// exists yet.
func (s *SQLiteStateStore) Load(ctx context.Context, jurisdictionID string) (*domain.IngestionState, error) {
	query := `
		SELECT jurisdiction_id, last_digest, last_run, records_processed, records_emitted
		FROM ingestion_state
		WHERE jurisdiction_id = ?`

	var state domain.IngestionState
	var lastRun string
	err := s.db.QueryRowContext(ctx, query, jurisdictionID).Scan(
		&state.JurisdictionID, &state.LastDigest, &lastRun,
		&state.RecordsProcessed, &state.RecordsEmitted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", jurisdictionID, err)
	}

	if parsed, perr := time.Parse(time.RFC3339, lastRun); perr == nil {
		state.LastRun = parsed
	}
	return &state, nil
}

// Save writes the checkpoint for one jurisdiction.
func (s *SQLiteStateStore) Save(ctx context.Context, state domain.IngestionState) error {
	query := `
		INSERT INTO ingestion_state (jurisdiction_id, last_digest, last_run, records_processed, records_emitted)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (jurisdiction_id) DO UPDATE SET
			last_digest = excluded.last_digest,
			last_run = excluded.last_run,
			records_processed = excluded.records_processed,
			records_emitted = excluded.records_emitted`

	_, err := s.db.ExecContext(ctx, query,
		state.JurisdictionID, state.LastDigest,
		state.LastRun.UTC().Format(time.RFC3339),
		state.RecordsProcessed, state.RecordsEmitted,
	)
	if err != nil {
		return fmt.Errorf("save state %s: %w", state.JurisdictionID, err)
	}
	return nil
}
