package store

import (
	"context"
	"fmt"
)

// Partition names for the local durable layout. Each partition is keyed
// by entity id (setting name for the settings partition).
const (
	PartitionProducts     = "products"
	PartitionCart         = "cart"
	PartitionPendingSales = "pendingSales"
	PartitionSyncedSales  = "syncedSales"
	PartitionSettings     = "settings"
)

// Store defines durable, partitioned key-value persistence. Entities are
// stored as JSON documents keyed by id. A Put followed by GetAll in the
// same session observes the put; each individual Put is atomic on its own,
// while multi-entity writes go through BulkPut which is transactional where
// the backend supports it.
type Store interface {
	// Put upserts a document by key. Idempotent.
	Put(ctx context.Context, partition, key string, doc []byte) error

	// BulkPut upserts multiple documents in one batch (e.g. wholesale
	// catalog refresh).
	BulkPut(ctx context.Context, partition string, docs map[string][]byte) error

	// Get retrieves a document by key. Returns ErrNotFound if absent.
	Get(ctx context.Context, partition, key string) ([]byte, error)

	// GetAll returns all documents in a partition keyed by id. Order is
	// not meaningful; callers sort explicitly.
	GetAll(ctx context.Context, partition string) (map[string][]byte, error)

	// Delete removes a document by key. Deleting an absent key is not an error.
	Delete(ctx context.Context, partition, key string) error

	// Clear removes all documents in a partition.
	Clear(ctx context.Context, partition string) error

	// Close closes the store.
	Close() error
}

// StoreError is a sentinel error type for store failures.
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the key was not found in the partition.
	ErrNotFound StoreError = "record not found"

	// ErrUnavailable indicates local persistence is inaccessible. Callers
	// must degrade to empty results rather than crash; the catalog read
	// path stays usable even with no store behind it.
	ErrUnavailable StoreError = "local store unavailable"
)

// backendError classifies a driver failure as ErrUnavailable so callers
// can branch with errors.Is. The driver detail stays in the chain for the
// log line.
func backendError(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), ErrUnavailable, err)
}
