// Package storage turns avatar object keys stored on profiles into URLs a
// browser can load.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"admin-dashboard/internal/config"
	"admin-dashboard/internal/domain"
)

// Presigner issues time-limited GET URLs for objects in a bucket.
// Implementations: S3Presigner, AzurePresigner, GCSPresigner.
type Presigner interface {
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// AvatarURLs resolves profile avatar values. Absolute http(s) URLs pass
// through; anything else is an object key in the avatar bucket.
type AvatarURLs struct {
	presigner  Presigner // nil for public buckets
	backendURL string
	bucket     string
	expiry     time.Duration
	logger     *slog.Logger
}

// NewAvatarURLs builds the resolver for the configured storage provider.
func NewAvatarURLs(cfg *config.Config, logger *slog.Logger) (*AvatarURLs, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AvatarURLs{
		backendURL: strings.TrimRight(cfg.Backend.URL, "/"),
		bucket:     cfg.Storage.Bucket,
		expiry:     cfg.Storage.Expiry,
		logger:     logger.With("component", "avatars"),
	}

	var err error
	switch cfg.Storage.Provider {
	case config.StorageS3:
		a.presigner, err = NewS3Presigner(&cfg.Storage)
	case config.StorageAzure:
		a.presigner, err = NewAzurePresigner(&cfg.Storage)
	case config.StorageGCS:
		a.presigner, err = NewGCSPresigner(context.Background(), &cfg.Storage)
	case config.StoragePublic, "":
	default:
		err = fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}
	return a, nil
}

// NewAvatarURLsWith builds a resolver around an explicit presigner.
func NewAvatarURLsWith(p Presigner, backendURL, bucket string, expiry time.Duration) *AvatarURLs {
	return &AvatarURLs{
		presigner:  p,
		backendURL: strings.TrimRight(backendURL, "/"),
		bucket:     bucket,
		expiry:     expiry,
		logger:     slog.Default().With("component", "avatars"),
	}
}

// URL resolves one avatar value. An empty value yields "".
func (a *AvatarURLs) URL(ctx context.Context, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if isAbsolute(value) {
		return value, nil
	}

	key := strings.TrimPrefix(value, "/")
	key = strings.TrimPrefix(key, a.bucket+"/")
	if a.presigner == nil {
		return a.publicURL(key), nil
	}
	u, err := a.presigner.PresignGetObject(ctx, a.bucket, key, a.expiry)
	if err != nil {
		return "", fmt.Errorf("presign avatar %q: %w", key, err)
	}
	return u, nil
}

// Apply rewrites AvatarURL on each profile in place. Profiles whose avatar
// cannot be resolved lose it, and the failure is logged.
func (a *AvatarURLs) Apply(ctx context.Context, profiles []domain.Profile) {
	for i := range profiles {
		p := &profiles[i]
		if p.AvatarURL == nil {
			continue
		}
		u, err := a.URL(ctx, *p.AvatarURL)
		if err != nil {
			a.logger.Warn("avatar url unavailable", "profile_id", p.ID, "error", err)
			p.AvatarURL = nil
			continue
		}
		if u == "" {
			p.AvatarURL = nil
			continue
		}
		p.AvatarURL = &u
	}
}

func (a *AvatarURLs) publicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", a.backendURL, url.PathEscape(a.bucket), strings.Join(segments, "/"))
}

func isAbsolute(v string) bool {
	u, err := url.Parse(v)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
