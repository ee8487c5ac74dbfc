// Package s3store implements the object store port on Amazon S3, where the
// receiving service drops raw inbound messages.
package s3store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Store is an ObjectStore backed by an S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// New creates a new S3-backed object store
func New(client *s3.Client, bucket string, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Get fetches the object's full contents.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}

	s.logger.Debug("Fetched object",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(raw)))
	return raw, nil
}
