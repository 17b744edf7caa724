package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"admin-dashboard/internal/config"
)

// Compile-time check.
var _ Presigner = (*S3Presigner)(nil)

// S3Presigner generates presigned URLs against an S3-compatible endpoint,
// such as the backend's own storage gateway.
type S3Presigner struct {
	presignClient *s3.PresignClient
}

// NewS3Presigner creates a presigner from the S3 storage settings.
func NewS3Presigner(cfg *config.StorageConfig) (*S3Presigner, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	endpoint := *cfg.S3Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	s3Client := s3.New(s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: cfg.S3PathStyle,
	})

	return &S3Presigner{presignClient: s3.NewPresignClient(s3Client)}, nil
}

// PresignGetObject generates a presigned GET URL for bucket/key.
func (p *S3Presigner) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	result, err := p.presignClient.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("presign GetObject for %q/%q: %w", bucket, key, err)
	}
	return result.URL, nil
}
