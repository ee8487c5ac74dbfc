package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/core"
	"github.com/mikey/llm-mail-router/internal/utils"
)

// Authenticator validates management API keys against the config store.
// Keys are stored as SHA256 hex digests; the raw key never touches disk.
type Authenticator struct {
	store  core.ConfigStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(store core.ConfigStore, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Authenticate resolves a raw API key to its stored record. It returns nil
// when the key is unknown, inactive or expired. On success the key's
// last-used timestamp is refreshed best-effort.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) *core.APIKeyRecord {
	if apiKey == "" {
		return nil
	}

	sum := sha256.Sum256([]byte(apiKey))
	keyHash := hex.EncodeToString(sum[:])

	record, err := a.store.GetAPIKey(ctx, keyHash)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			a.logger.Error("API key lookup failed", zap.Error(err))
		}
		return nil
	}
	if !record.Usable(a.now()) {
		a.logger.Warn("Rejected inactive or expired API key",
			zap.String("key_name", record.KeyName))
		return nil
	}

	utils.BestEffort(a.logger, "refresh API key last_used_at", func() error {
		return a.store.TouchAPIKey(ctx, keyHash, a.now())
	})

	return record
}
