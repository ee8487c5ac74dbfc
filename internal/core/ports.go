package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// InferenceClient defines the interface for invoking a language model with a
// single user prompt. modelID overrides the client's default model when the
// backend supports per-call model selection; an empty string uses the default.
type InferenceClient interface {
	Invoke(ctx context.Context, modelID string, prompt string) (string, error)
}

// ObjectStore fetches raw message bytes by key.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// MailSender submits a fully composed raw message to a single recipient and
// returns the provider-assigned message identifier.
type MailSender interface {
	SendRaw(ctx context.Context, to string, raw []byte) (string, error)
}

// ConfigStore is the shared routing configuration store used by both the
// forwarding pipeline and the management protocol handler.
type ConfigStore interface {
	// GetRoutingConfig returns the current configuration record, or
	// ErrNotFound if none has been written yet.
	GetRoutingConfig(ctx context.Context) (*RoutingConfig, error)

	// PutRoutingConfig overwrites the current configuration with the given
	// rules, marking it enabled and stamping updatedAt.
	PutRoutingConfig(ctx context.Context, rules string, updatedAt time.Time) error

	// ArchiveRoutingConfig appends a snapshot to the version history.
	ArchiveRoutingConfig(ctx context.Context, rules string, archivedAt time.Time) error

	// ListConfigVersions returns archived versions, newest first, up to limit.
	ListConfigVersions(ctx context.Context, limit int) ([]ConfigVersion, error)

	// GetAPIKey looks up an API key record by SHA256 hex digest.
	GetAPIKey(ctx context.Context, keyHash string) (*APIKeyRecord, error)

	// TouchAPIKey updates the key's last_used_at timestamp.
	TouchAPIKey(ctx context.Context, keyHash string, usedAt time.Time) error
}
