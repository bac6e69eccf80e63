package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// MySQLStore implements Store on a MySQL database. Intended for
// deployments where the terminal persists to a LAN database instead of a
// local file; the sync semantics are identical to the SQLite backend.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a MySQL-backed store on an existing connection.
func NewMySQLStore(db *sql.DB) (*MySQLStore, error) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// partition_name instead of partition: PARTITION is reserved in MySQL
	query := `
	CREATE TABLE IF NOT EXISTS records (
		partition_name VARCHAR(64) NOT NULL,
		record_key VARCHAR(191) NOT NULL,
		doc MEDIUMTEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (partition_name, record_key)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	log.Printf("[MySQLStore] Initialized")
	return &MySQLStore{db: db}, nil
}

// Put upserts a document by key.
func (s *MySQLStore) Put(ctx context.Context, partition, key string, doc []byte) error {
	query := `
		INSERT INTO records (partition_name, record_key, doc, updated_at)
		VALUES (?, ?, ?, UTC_TIMESTAMP())
		ON DUPLICATE KEY UPDATE doc = VALUES(doc), updated_at = UTC_TIMESTAMP()`

	if _, err := s.db.ExecContext(ctx, query, partition, key, string(doc)); err != nil {
		return backendError(err, "failed to put record %s/%s", partition, key)
	}
	return nil
}

// BulkPut upserts multiple documents inside a single transaction.
func (s *MySQLStore) BulkPut(ctx context.Context, partition string, docs map[string][]byte) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backendError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (partition_name, record_key, doc, updated_at)
		VALUES (?, ?, ?, UTC_TIMESTAMP())
		ON DUPLICATE KEY UPDATE doc = VALUES(doc), updated_at = UTC_TIMESTAMP()`)
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
func (s *MySQLStore) Get(ctx context.Context, partition, key string) ([]byte, error) {
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
func (s *MySQLStore) GetAll(ctx context.Context, partition string) (map[string][]byte, error) {
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
func (s *MySQLStore) Delete(ctx context.Context, partition, key string) error {
	query := `DELETE FROM records WHERE partition_name = ? AND record_key = ?`
	if _, err := s.db.ExecContext(ctx, query, partition, key); err != nil {
		return backendError(err, "failed to delete record %s/%s", partition, key)
	}
	return nil
}

// Clear removes all documents in a partition.
func (s *MySQLStore) Clear(ctx context.Context, partition string) error {
	query := `DELETE FROM records WHERE partition_name = ?`
	if _, err := s.db.ExecContext(ctx, query, partition); err != nil {
		return backendError(err, "failed to clear partition %s", partition)
	}
	return nil
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Ensure MySQLStore implements Store
var _ Store = (*MySQLStore)(nil)
