package storage

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"admin-dashboard/internal/config"
)

// Compile-time check.
var _ Presigner = (*GCSPresigner)(nil)

// GCSPresigner generates signed URLs for Google Cloud Storage objects.
type GCSPresigner struct {
	client *gcs.Client
}

// NewGCSPresigner creates a presigner authenticated with a service account key file.
func NewGCSPresigner(ctx context.Context, cfg *config.StorageConfig) (*GCSPresigner, error) {
	if cfg.GCSKeyFile == "" {
		return nil, fmt.Errorf("GCS key file is required")
	}
	client, err := gcs.NewClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.GCSKeyFile))
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSPresigner{client: client}, nil
}

// PresignGetObject generates a signed GET URL for bucket/key.
func (p *GCSPresigner) PresignGetObject(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	signedURL, err := p.client.Bucket(bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("sign GetObject for %q/%q: %w", bucket, key, err)
	}
	return signedURL, nil
}

// Close releases the underlying client.
func (p *GCSPresigner) Close() error {
	return p.client.Close()
}
