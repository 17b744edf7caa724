package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"admin-dashboard/internal/config"
)

// Compile-time check.
var _ Presigner = (*AzurePresigner)(nil)

// AzurePresigner generates SAS URLs for Azure Blob Storage. Buckets map to
// containers. Only shared-key credentials can sign.
type AzurePresigner struct {
	client *azblob.Client
}

// NewAzurePresigner creates a presigner from the account name and key.
func NewAzurePresigner(cfg *config.StorageConfig) (*AzurePresigner, error) {
	if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
		return nil, fmt.Errorf("Azure account name and key are required")
	}

	sharedKeyCred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, sharedKeyCred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzurePresigner{client: client}, nil
}

// PresignGetObject generates a read-only SAS URL for container/key.
func (p *AzurePresigner) PresignGetObject(_ context.Context, container, key string, expiry time.Duration) (string, error) {
	blobClient := p.client.ServiceClient().NewContainerClient(container).NewBlobClient(key)
	sasURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("generate SAS URL for %q/%q: %w", container, key, err)
	}
	return sasURL, nil
}
