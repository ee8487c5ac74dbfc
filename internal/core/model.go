package core

import (
	"time"
)

// RoutingDecision is the structured output of the AI routing engine.
// It is produced per message and never persisted.
type RoutingDecision struct {
	RouteTo    []string `json:"route_to"`
	Tags       []string `json:"tags"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// RoutingConfig is the current routing configuration record.
type RoutingConfig struct {
	Rules     string
	Enabled   bool
	ModelID   string
	UpdatedAt time.Time
}

// ConfigVersion is an archived routing configuration snapshot.
type ConfigVersion struct {
	Rules      string
	ArchivedAt time.Time
}

// APIKeyRecord holds the stored metadata for a management API key.
// Keys are looked up by the SHA256 hex digest of the raw key.
type APIKeyRecord struct {
	KeyHash     string
	KeyName     string
	Permissions []string
	IsActive    bool
	ExpiresAt   *time.Time
	LastUsedAt  time.Time
}

// Usable reports whether the key can authenticate a request at the given time.
func (k *APIKeyRecord) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	if k.ExpiresAt != nil && now.After(*k.ExpiresAt) {
		return false
	}
	return true
}

// EmailSummary is the slice of an inbound message handed to the routing engine.
type EmailSummary struct {
	Sender  string
	Subject string
	Body    string
}
