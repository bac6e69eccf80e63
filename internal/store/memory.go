package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store. It is the null
// backend for hosts without persistence (and for tests); data does not
// survive a restart, so pending sales rely entirely on the drain loop
// running within the process lifetime.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string][]byte
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		partitions: make(map[string]map[string][]byte),
	}
}

// Put upserts a document by key.
func (s *MemoryStore) Put(ctx context.Context, partition, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partitions[partition]
	if !ok {
		p = make(map[string][]byte)
		s.partitions[partition] = p
	}

	docCopy := make([]byte, len(doc))
	copy(docCopy, doc)
	p[key] = docCopy
	return nil
}

// BulkPut upserts multiple documents.
func (s *MemoryStore) BulkPut(ctx context.Context, partition string, docs map[string][]byte) error {
	for key, doc := range docs {
		if err := s.Put(ctx, partition, key, doc); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a document by key.
func (s *MemoryStore) Get(ctx context.Context, partition, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.partitions[partition][key]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(doc))
	copy(result, doc)
	return result, nil
}

// GetAll returns all documents in a partition.
func (s *MemoryStore) GetAll(ctx context.Context, partition string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make(map[string][]byte, len(s.partitions[partition]))
	for key, doc := range s.partitions[partition] {
		result := make([]byte, len(doc))
		copy(result, doc)
		docs[key] = result
	}
	return docs, nil
}

// Delete removes a document by key.
func (s *MemoryStore) Delete(ctx context.Context, partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.partitions[partition], key)
	return nil
}

// Clear removes all documents in a partition.
func (s *MemoryStore) Clear(ctx context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.partitions, partition)
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
