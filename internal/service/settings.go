package service

import (
	"context"
	"fmt"

	"pos-edge-sync/internal/store"
)

// SettingsService reads and writes the settings partition, keyed by
// setting name. Used for terminal-local preferences such as notification
// opt-in.
type SettingsService struct {
	store store.Store
}

// NewSettingsService creates a settings service.
func NewSettingsService(st store.Store) *SettingsService {
	return &SettingsService{store: st}
}

// Get returns the raw value for a setting name. Returns store.ErrNotFound
// when the setting has never been written.
func (s *SettingsService) Get(ctx context.Context, name string) ([]byte, error) {
	return s.store.Get(ctx, store.PartitionSettings, name)
}

// Put stores the value for a setting name.
func (s *SettingsService) Put(ctx context.Context, name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("setting name is required")
	}
	return s.store.Put(ctx, store.PartitionSettings, name, value)
}
