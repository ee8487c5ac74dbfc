package configstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/core"
)

// MemoryStore is an in-memory ConfigStore for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	config  *core.RoutingConfig
	history []core.ConfigVersion // append order, oldest first
	keys    map[string]*core.APIKeyRecord
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory config store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		keys:   make(map[string]*core.APIKeyRecord),
		logger: logger,
	}
}

// SeedRoutingConfig installs a configuration record directly, bypassing the
// archive-then-overwrite path. Intended for tests and local bootstrap.
func (s *MemoryStore) SeedRoutingConfig(cfg core.RoutingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &cfg
}

// SeedAPIKey installs an API key record directly.
func (s *MemoryStore) SeedAPIKey(record core.APIKeyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[record.KeyHash] = &record
}

// GetRoutingConfig returns the current configuration record.
func (s *MemoryStore) GetRoutingConfig(ctx context.Context) (*core.RoutingConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil, core.ErrNotFound
	}
	cfg := *s.config
	return &cfg, nil
}

// PutRoutingConfig overwrites the current configuration record.
func (s *MemoryStore) PutRoutingConfig(ctx context.Context, rules string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &core.RoutingConfig{
		Rules:     rules,
		Enabled:   true,
		UpdatedAt: updatedAt,
	}
	return nil
}

// ArchiveRoutingConfig appends a snapshot to the version history.
func (s *MemoryStore) ArchiveRoutingConfig(ctx context.Context, rules string, archivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, core.ConfigVersion{Rules: rules, ArchivedAt: archivedAt})
	return nil
}

// ListConfigVersions returns archived versions, newest first.
func (s *MemoryStore) ListConfigVersions(ctx context.Context, limit int) ([]core.ConfigVersion, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]core.ConfigVersion, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(versions) < limit; i-- {
		versions = append(versions, s.history[i])
	}
	return versions, nil
}

// GetAPIKey looks up an API key record by SHA256 hex digest.
func (s *MemoryStore) GetAPIKey(ctx context.Context, keyHash string) (*core.APIKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.keys[keyHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// TouchAPIKey updates the key's last_used_at timestamp.
func (s *MemoryStore) TouchAPIKey(ctx context.Context, keyHash string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.keys[keyHash]
	if !ok {
		return core.ErrNotFound
	}
	record.LastUsedAt = usedAt
	return nil
}
