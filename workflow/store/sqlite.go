package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, adapted from the teacher's
// graph/store SQLiteStore: single-file database, WAL mode for
// concurrent reads, zero external setup.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path
// and ensures the conductor schema exists. Pass ":memory:" for an
// ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workflow_latest (
			workflow_id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			doc BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_checkpoints (
			workflow_id TEXT NOT NULL,
			label TEXT NOT NULL,
			seq INTEGER NOT NULL,
			doc BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (workflow_id, label)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_workflow ON workflow_checkpoints(workflow_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLatest(ctx context.Context, workflowID string, seq int, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_latest (workflow_id, seq, doc)
		VALUES (?, ?, ?)
		ON CONFLICT(workflow_id) DO UPDATE SET
			seq = excluded.seq,
			doc = excluded.doc,
			updated_at = CURRENT_TIMESTAMP
	`, workflowID, seq, doc)
	if err != nil {
		return fmt.Errorf("save latest: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context, workflowID string) ([]byte, int, error) {
	var doc []byte
	var seq int
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, doc FROM workflow_latest WHERE workflow_id = ?`, workflowID,
	).Scan(&seq, &doc)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load latest: %w", err)
	}
	return doc, seq, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, workflowID, label string, seq int, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (workflow_id, label, seq, doc)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workflow_id, label) DO UPDATE SET
			seq = excluded.seq,
			doc = excluded.doc
	`, workflowID, label, seq, doc)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadCheckpoint(ctx context.Context, workflowID, label string) ([]byte, int, error) {
	var doc []byte
	var seq int
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, doc FROM workflow_checkpoints WHERE workflow_id = ? AND label = ?`,
		workflowID, label,
	).Scan(&seq, &doc)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load checkpoint: %w", err)
	}
	return doc, seq, nil
}

func (s *SQLiteStore) ListCheckpoints(ctx context.Context, workflowID string) ([]CheckpointMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, seq, created_at FROM workflow_checkpoints
		WHERE workflow_id = ? ORDER BY created_at ASC
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []CheckpointMeta
	for rows.Next() {
		var meta CheckpointMeta
		var createdAt time.Time
		if err := rows.Scan(&meta.Label, &meta.Seq, &createdAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint row: %w", err)
		}
		meta.CreatedAt = createdAt
		out = append(out, meta)
	}
	return out, rows.Err()
}
