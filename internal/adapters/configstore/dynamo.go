// Package configstore implements the routing configuration store on
// DynamoDB (production), SQL databases and memory.
//
// The DynamoDB key space uses a single table:
//
//	(CONFIG,  routing_prompt)            current configuration
//	(HISTORY, routing_prompt#<ts>)       archived versions
//	(API_KEY, <sha256 hex>)              management API keys
package configstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/core"
)

const (
	pkConfig  = "CONFIG"
	pkHistory = "HISTORY"
	pkAPIKey  = "API_KEY"

	skRoutingPrompt = "routing_prompt"
	historySKPrefix = "routing_prompt#"
)

// DynamoStore is a ConfigStore backed by a single DynamoDB table.
type DynamoStore struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

// NewDynamoStore creates a new DynamoDB-backed config store
func NewDynamoStore(client *dynamodb.Client, table string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
		logger: logger,
	}
}

type configItem struct {
	PK        string `dynamodbav:"pk"`
	SK        string `dynamodbav:"sk"`
	Rules     string `dynamodbav:"routing_rules"`
	Enabled   *bool  `dynamodbav:"enabled"`
	ModelID   string `dynamodbav:"model_id"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

type historyItem struct {
	PK         string `dynamodbav:"pk"`
	SK         string `dynamodbav:"sk"`
	Rules      string `dynamodbav:"routing_rules"`
	ArchivedAt string `dynamodbav:"archived_at"`
}

type apiKeyItem struct {
	KeyName     string   `dynamodbav:"key_name"`
	Permissions []string `dynamodbav:"permissions,stringset"`
	IsActive    bool     `dynamodbav:"is_active"`
	ExpiresAt   string   `dynamodbav:"expires_at"`
	LastUsedAt  string   `dynamodbav:"last_used_at"`
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

// GetRoutingConfig returns the current configuration record. A missing
// enabled attribute counts as enabled; only an explicit false disables
// routing.
func (s *DynamoStore) GetRoutingConfig(ctx context.Context) (*core.RoutingConfig, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       itemKey(pkConfig, skRoutingPrompt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get routing config: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, core.ErrNotFound
	}

	var item configItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routing config: %w", err)
	}

	cfg := &core.RoutingConfig{
		Rules:   item.Rules,
		Enabled: item.Enabled == nil || *item.Enabled,
		ModelID: item.ModelID,
	}
	if item.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, item.UpdatedAt); err == nil {
			cfg.UpdatedAt = ts
		}
	}
	return cfg, nil
}

// PutRoutingConfig overwrites the current configuration record. The write
// replaces the whole item, so a stored model override reverts to the
// deployment default.
func (s *DynamoStore) PutRoutingConfig(ctx context.Context, rules string, updatedAt time.Time) error {
	item, err := attributevalue.MarshalMap(configItem{
		PK:        pkConfig,
		SK:        skRoutingPrompt,
		Rules:     rules,
		Enabled:   aws.Bool(true),
		UpdatedAt: updatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal routing config: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put routing config: %w", err)
	}
	return nil
}

// ArchiveRoutingConfig appends a snapshot to the version history.
func (s *DynamoStore) ArchiveRoutingConfig(ctx context.Context, rules string, archivedAt time.Time) error {
	ts := archivedAt.UTC().Format(time.RFC3339Nano)
	item, err := attributevalue.MarshalMap(historyItem{
		PK:         pkHistory,
		SK:         historySKPrefix + ts,
		Rules:      rules,
		ArchivedAt: ts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config version: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to archive routing config: %w", err)
	}
	return nil
}

// ListConfigVersions returns archived versions, newest first.
func (s *DynamoStore) ListConfigVersions(ctx context.Context, limit int) ([]core.ConfigVersion, error) {
	if limit <= 0 {
		limit = 10
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pkHistory},
			":prefix": &types.AttributeValueMemberS{Value: historySKPrefix},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query config history: %w", err)
	}

	var items []historyItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config history: %w", err)
	}

	versions := make([]core.ConfigVersion, 0, len(items))
	for _, item := range items {
		v := core.ConfigVersion{Rules: item.Rules}
		if ts, err := time.Parse(time.RFC3339, item.ArchivedAt); err == nil {
			v.ArchivedAt = ts
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// GetAPIKey looks up an API key record by SHA256 hex digest.
func (s *DynamoStore) GetAPIKey(ctx context.Context, keyHash string) (*core.APIKeyRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       itemKey(pkAPIKey, keyHash),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, core.ErrNotFound
	}

	var item apiKeyItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal API key: %w", err)
	}

	record := &core.APIKeyRecord{
		KeyHash:     keyHash,
		KeyName:     item.KeyName,
		Permissions: item.Permissions,
		IsActive:    item.IsActive,
	}
	if item.ExpiresAt != "" {
		ts, err := time.Parse(time.RFC3339, item.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API key expiry: %w", err)
		}
		record.ExpiresAt = &ts
	}
	if item.LastUsedAt != "" {
		if ts, err := time.Parse(time.RFC3339, item.LastUsedAt); err == nil {
			record.LastUsedAt = ts
		}
	}
	return record, nil
}

// TouchAPIKey updates the key's last_used_at timestamp.
func (s *DynamoStore) TouchAPIKey(ctx context.Context, keyHash string, usedAt time.Time) error {
	if _, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              itemKey(pkAPIKey, keyHash),
		UpdateExpression: aws.String("SET last_used_at = :ts"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts": &types.AttributeValueMemberS{Value: usedAt.UTC().Format(time.RFC3339Nano)},
		},
	}); err != nil {
		return fmt.Errorf("failed to update API key last_used_at: %w", err)
	}
	return nil
}
