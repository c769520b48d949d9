package mirror

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSProvider mirrors snapshots into a Google Cloud Storage bucket.
type GCSProvider struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewGCSProvider initializes a GCS client and verifies the bucket is
// reachable. Authentication uses Application Default Credentials.
func NewGCSProvider(ctx context.Context, bucket, prefix string, logger *zap.Logger) (*GCSProvider, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	// Fail fast on startup if the bucket is missing or inaccessible.
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close gcs client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}

	return &GCSProvider{client: client, bucket: bucket, prefix: prefix, logger: logger}, nil
}

// Save uploads data to objectName below the configured prefix.
func (g *GCSProvider) Save(ctx context.Context, objectName string, data []byte) error {
	name := objectName
	if g.prefix != "" {
		name = path.Join(g.prefix, objectName)
	}
	wc := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	if _, err := wc.Write(data); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			g.logger.Warn("failed to close gcs writer after write failure", zap.Error(closeErr))
		}
		return fmt.Errorf("write gcs object %s: %w", name, err)
	}
	// Close finalizes the upload and flushes any buffered data.
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gcs writer for object %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCSProvider) Close() error {
	return g.client.Close()
}
