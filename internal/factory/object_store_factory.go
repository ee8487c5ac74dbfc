package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-router/internal/adapters/s3store"
	"github.com/mikey/llm-mail-router/internal/config"
	"github.com/mikey/llm-mail-router/internal/core"
)

// ObjectStoreFactory creates raw mail object stores
type ObjectStoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewObjectStoreFactory creates a new object store factory
func NewObjectStoreFactory(cfg *config.Config, logger *zap.Logger) *ObjectStoreFactory {
	return &ObjectStoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateObjectStore creates the S3-backed raw mail store
func (f *ObjectStoreFactory) CreateObjectStore() (core.ObjectStore, error) {
	s3Cfg := f.cfg.GetS3()
	if s3Cfg.Bucket == "" {
		return nil, fmt.Errorf("s3.bucket must be configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return s3store.New(s3.NewFromConfig(awsCfg), s3Cfg.Bucket, f.logger), nil
}
