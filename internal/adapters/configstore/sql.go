package configstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/core"
)

// SQLStore implements ConfigStore on a database/sql connection. It backs the
// sqlite and mysql store backends for deployments outside AWS.
type SQLStore struct {
	db           *sql.DB
	upsertConfig string
	logger       *zap.Logger
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS routing_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		rules TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT 1,
		model_id TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS routing_config_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rules TEXT NOT NULL,
		archived_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		key_hash TEXT PRIMARY KEY,
		key_name TEXT NOT NULL DEFAULT '',
		permissions TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		expires_at TEXT,
		last_used_at TEXT
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS routing_config (
		id INT PRIMARY KEY,
		rules TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT 1,
		model_id VARCHAR(255) NOT NULL DEFAULT '',
		updated_at VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS routing_config_history (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		rules TEXT NOT NULL,
		archived_at VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		key_hash VARCHAR(64) PRIMARY KEY,
		key_name VARCHAR(255) NOT NULL DEFAULT '',
		permissions TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		expires_at VARCHAR(64),
		last_used_at VARCHAR(64)
	)`,
}

// NewSQLiteStore creates a config store on a SQLite database file
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	upsert := `INSERT INTO routing_config (id, rules, enabled, model_id, updated_at)
		VALUES (1, ?, 1, '', ?)
		ON CONFLICT(id) DO UPDATE SET
			rules = excluded.rules, enabled = 1, model_id = '', updated_at = excluded.updated_at`
	return newSQLStore(db, sqliteSchema, upsert, logger)
}

// NewMySQLStore creates a config store on a MySQL database
func NewMySQLStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	upsert := `INSERT INTO routing_config (id, rules, enabled, model_id, updated_at)
		VALUES (1, ?, 1, '', ?)
		ON DUPLICATE KEY UPDATE
			rules = VALUES(rules), enabled = 1, model_id = '', updated_at = VALUES(updated_at)`
	return newSQLStore(db, mysqlSchema, upsert, logger)
}

func newSQLStore(db *sql.DB, schema []string, upsertConfig string, logger *zap.Logger) (*SQLStore, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &SQLStore{db: db, upsertConfig: upsertConfig, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetRoutingConfig returns the current configuration record.
func (s *SQLStore) GetRoutingConfig(ctx context.Context) (*core.RoutingConfig, error) {
	var (
		rules, modelID, updatedAt string
		enabled                   bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT rules, enabled, model_id, updated_at FROM routing_config WHERE id = 1
	`).Scan(&rules, &enabled, &modelID, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query routing config: %w", err)
	}

	cfg := &core.RoutingConfig{Rules: rules, Enabled: enabled, ModelID: modelID}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		cfg.UpdatedAt = ts
	}
	return cfg, nil
}

// PutRoutingConfig overwrites the current configuration record.
func (s *SQLStore) PutRoutingConfig(ctx context.Context, rules string, updatedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, s.upsertConfig, rules, updatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to put routing config: %w", err)
	}
	return nil
}

// ArchiveRoutingConfig appends a snapshot to the version history.
func (s *SQLStore) ArchiveRoutingConfig(ctx context.Context, rules string, archivedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO routing_config_history (rules, archived_at) VALUES (?, ?)
	`, rules, archivedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to archive routing config: %w", err)
	}
	return nil
}

// ListConfigVersions returns archived versions, newest first.
func (s *SQLStore) ListConfigVersions(ctx context.Context, limit int) ([]core.ConfigVersion, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rules, archived_at FROM routing_config_history ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query config history: %w", err)
	}
	defer rows.Close()

	var versions []core.ConfigVersion
	for rows.Next() {
		var rules, archivedAt string
		if err := rows.Scan(&rules, &archivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config version: %w", err)
		}
		v := core.ConfigVersion{Rules: rules}
		if ts, err := time.Parse(time.RFC3339, archivedAt); err == nil {
			v.ArchivedAt = ts
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetAPIKey looks up an API key record by SHA256 hex digest.
func (s *SQLStore) GetAPIKey(ctx context.Context, keyHash string) (*core.APIKeyRecord, error) {
	var (
		keyName, permissions  string
		isActive              bool
		expiresAt, lastUsedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key_name, permissions, is_active, expires_at, last_used_at
		FROM api_keys WHERE key_hash = ?
	`, keyHash).Scan(&keyName, &permissions, &isActive, &expiresAt, &lastUsedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query API key: %w", err)
	}

	record := &core.APIKeyRecord{
		KeyHash:  keyHash,
		KeyName:  keyName,
		IsActive: isActive,
	}
	if permissions != "" {
		record.Permissions = strings.Split(permissions, ",")
	}
	if expiresAt.Valid && expiresAt.String != "" {
		ts, err := time.Parse(time.RFC3339, expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API key expiry: %w", err)
		}
		record.ExpiresAt = &ts
	}
	if lastUsedAt.Valid && lastUsedAt.String != "" {
		if ts, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
			record.LastUsedAt = ts
		}
	}
	return record, nil
}

// TouchAPIKey updates the key's last_used_at timestamp.
func (s *SQLStore) TouchAPIKey(ctx context.Context, keyHash string, usedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?
	`, usedAt.UTC().Format(time.RFC3339Nano), keyHash); err != nil {
		return fmt.Errorf("failed to update API key last_used_at: %w", err)
	}
	return nil
}
