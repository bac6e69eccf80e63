package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements Store using SQLite. This is the default durable
// backend: it survives process restarts and needs nothing but a writable
// file path. Thread-safe with WAL mode for concurrent reads.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed store.
// dbPath is the path to the database file (e.g., "./data/pos.db").
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

// createTables creates the partitioned record table.
func createTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS records (
		partition_name TEXT NOT NULL,
		record_key TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY (partition_name, record_key)
	);
	CREATE INDEX IF NOT EXISTS idx_records_partition ON records(partition_name);
	`
	_, err := db.Exec(query)
	return err
}

// Put upserts a document by key.
func (s *SQLiteStore) Put(ctx context.Context, partition, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO records (partition_name, record_key, doc, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(partition_name, record_key) DO UPDATE SET
			doc = excluded.doc,
			updated_at = datetime('now')`

	if _, err := s.db.ExecContext(ctx, query, partition, key, string(doc)); err != nil {
		return backendError(err, "failed to put record %s/%s", partition, key)
	}
	return nil
}

// BulkPut upserts multiple documents inside a single transaction.
func (s *SQLiteStore) BulkPut(ctx context.Context, partition string, docs map[string][]byte) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backendError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (partition_name, record_key, doc, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(partition_name, record_key) DO UPDATE SET
			doc = excluded.doc,
			updated_at = datetime('now')`)
	if err != nil {
		return backendError(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for key, doc := range docs {
		if _, err := stmt.ExecContext(ctx, partition, key, string(doc)); err != nil {
			return backendError(err, "failed to bulk put record %s/%s", partition, key)
		}
	}

	if err := tx.Commit(); err != nil {
		return backendError(err, "failed to commit transaction")
	}
	return nil
}

// Get retrieves a document by key.
func (s *SQLiteStore) Get(ctx context.Context, partition, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	query := `SELECT doc FROM records WHERE partition_name = ? AND record_key = ?`
	err := s.db.QueryRowContext(ctx, query, partition, key).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, backendError(err, "failed to get record %s/%s", partition, key)
	}
	return []byte(doc), nil
}

// GetAll returns all documents in a partition.
func (s *SQLiteStore) GetAll(ctx context.Context, partition string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT record_key, doc FROM records WHERE partition_name = ?`
	rows, err := s.db.QueryContext(ctx, query, partition)
	if err != nil {
		return nil, backendError(err, "failed to list partition %s", partition)
	}
	defer rows.Close()

	docs := make(map[string][]byte)
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, backendError(err, "failed to scan record")
		}
		docs[key] = []byte(doc)
	}
	if err := rows.Err(); err != nil {
		return nil, backendError(err, "failed to read partition %s", partition)
	}
	return docs, nil
}

// Delete removes a document by key.
func (s *SQLiteStore) Delete(ctx context.Context, partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `DELETE FROM records WHERE partition_name = ? AND record_key = ?`
	if _, err := s.db.ExecContext(ctx, query, partition, key); err != nil {
		return backendError(err, "failed to delete record %s/%s", partition, key)
	}
	return nil
}

// Clear removes all documents in a partition.
func (s *SQLiteStore) Clear(ctx context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `DELETE FROM records WHERE partition_name = ?`
	if _, err := s.db.ExecContext(ctx, query, partition); err != nil {
		return backendError(err, "failed to clear partition %s", partition)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
