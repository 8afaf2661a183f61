package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed Store, adapted from the teacher's
// graph/store MySQLStore: connection-pooled, schema auto-created on
// first use, suitable for multi-process deployments sharing one
// conductor's persisted documents.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn (a
// go-sql-driver/mysql data source name) and ensures the conductor
// schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &MySQLStore{db: db}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workflow_latest (
			workflow_id VARCHAR(255) PRIMARY KEY,
			seq INT NOT NULL,
			doc LONGBLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS workflow_checkpoints (
			workflow_id VARCHAR(255) NOT NULL,
			label VARCHAR(255) NOT NULL,
			seq INT NOT NULL,
			doc LONGBLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (workflow_id, label),
			INDEX idx_checkpoints_workflow (workflow_id, created_at)
		) ENGINE=InnoDB`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) SaveLatest(ctx context.Context, workflowID string, seq int, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_latest (workflow_id, seq, doc)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE seq = VALUES(seq), doc = VALUES(doc)
	`, workflowID, seq, doc)
	if err != nil {
		return fmt.Errorf("save latest: %w", err)
	}
	return nil
}

func (s *MySQLStore) LoadLatest(ctx context.Context, workflowID string) ([]byte, int, error) {
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

func (s *MySQLStore) SaveCheckpoint(ctx context.Context, workflowID, label string, seq int, doc []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_checkpoints (workflow_id, label, seq, doc)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE seq = VALUES(seq), doc = VALUES(doc)
	`, workflowID, label, seq, doc)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *MySQLStore) LoadCheckpoint(ctx context.Context, workflowID, label string) ([]byte, int, error) {
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

func (s *MySQLStore) ListCheckpoints(ctx context.Context, workflowID string) ([]CheckpointMeta, error) {
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
