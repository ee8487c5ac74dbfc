package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/adapters/configstore"
	"github.com/mikey/llm-mail-router/internal/config"
	"github.com/mikey/llm-mail-router/internal/core"
)

// StoreFactory creates routing configuration stores
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateConfigStore creates a new config store based on the configuration
func (f *StoreFactory) CreateConfigStore() (core.ConfigStore, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return configstore.NewDynamoStore(
			dynamodb.NewFromConfig(awsCfg),
			storeCfg.TableName,
			f.logger,
		), nil
	case "sqlite":
		return configstore.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
	case "mysql":
		return configstore.NewMySQLStore(storeCfg.MySQLDSN, f.logger)
	case "memory":
		return configstore.NewMemoryStore(f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}
