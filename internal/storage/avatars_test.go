package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-dashboard/internal/config"
	"admin-dashboard/internal/domain"
)

func strPtr(s string) *string { return &s }

type fakePresigner struct {
	err error
}

func (f fakePresigner) PresignGetObject(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example.com/" + bucket + "/" + key + "?ttl=" + expiry.String(), nil
}

func TestAvatarURLs_URL(t *testing.T) {
	t.Parallel()

	public := NewAvatarURLsWith(nil, "https://project.backend.example.com/", "avatars", time.Hour)
	signed := NewAvatarURLsWith(fakePresigner{}, "https://project.backend.example.com", "avatars", time.Minute)

	tests := []struct {
		name string
		a    *AvatarURLs
		in   string
		want string
	}{
		{name: "empty", a: public, in: "", want: ""},
		{name: "absolute passes through", a: signed, in: "https://cdn.example.com/a.png", want: "https://cdn.example.com/a.png"},
		{name: "public key", a: public, in: "u1/face.png", want: "https://project.backend.example.com/storage/v1/object/public/avatars/u1/face.png"},
		{name: "public key with bucket prefix", a: public, in: "/avatars/u1/face.png", want: "https://project.backend.example.com/storage/v1/object/public/avatars/u1/face.png"},
		{name: "public key escaped", a: public, in: "u1/my face.png", want: "https://project.backend.example.com/storage/v1/object/public/avatars/u1/my%20face.png"},
		{name: "presigned key", a: signed, in: "u1/face.png", want: "https://signed.example.com/avatars/u1/face.png?ttl=1m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.a.URL(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAvatarURLs_Apply(t *testing.T) {
	t.Parallel()

	profiles := []domain.Profile{
		{ID: "a", AvatarURL: strPtr("a/face.png")},
		{ID: "b"},
		{ID: "c", AvatarURL: strPtr("  ")},
	}
	NewAvatarURLsWith(nil, "https://b.example.com", "avatars", time.Hour).Apply(context.Background(), profiles)

	require.NotNil(t, profiles[0].AvatarURL)
	assert.Equal(t, "https://b.example.com/storage/v1/object/public/avatars/a/face.png", *profiles[0].AvatarURL)
	assert.Nil(t, profiles[1].AvatarURL)
	assert.Nil(t, profiles[2].AvatarURL)

	failing := []domain.Profile{{ID: "d", AvatarURL: strPtr("d/face.png")}}
	NewAvatarURLsWith(fakePresigner{err: errors.New("denied")}, "https://b.example.com", "avatars", time.Hour).Apply(context.Background(), failing)
	assert.Nil(t, failing[0].AvatarURL)
}

func TestNewAvatarURLs_Providers(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Backend: config.BackendConfig{URL: "https://b.example.com"},
		Storage: config.StorageConfig{Provider: config.StoragePublic, Bucket: "avatars", Expiry: time.Hour},
	}
	a, err := NewAvatarURLs(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, a.presigner)

	bad := *cfg
	bad.Storage.Provider = config.StorageS3
	_, err = NewAvatarURLs(&bad, nil)
	require.Error(t, err)

	unknown := *cfg
	unknown.Storage.Provider = "ftp"
	_, err = NewAvatarURLs(&unknown, nil)
	require.Error(t, err)
}

func TestS3Presigner(t *testing.T) {
	t.Parallel()

	cfg := &config.StorageConfig{
		S3KeyID:     strPtr("AKIDEXAMPLE"),
		S3Secret:    strPtr("secret"),
		S3Endpoint:  strPtr("storage.example.com"),
		S3Region:    strPtr("eu-central-1"),
		S3PathStyle: true,
	}
	p, err := NewS3Presigner(cfg)
	require.NoError(t, err)

	raw, err := p.PresignGetObject(context.Background(), "avatars", "u1/face.png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "storage.example.com", u.Host)
	assert.Equal(t, "/avatars/u1/face.png", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, err = NewS3Presigner(&config.StorageConfig{S3KeyID: strPtr("k")})
	require.Error(t, err)
}

func TestAzurePresigner(t *testing.T) {
	t.Parallel()

	p, err := NewAzurePresigner(&config.StorageConfig{AzureAccountName: "acct", AzureAccountKey: "c2VjcmV0LWtleQ=="})
	require.NoError(t, err)

	raw, err := p.PresignGetObject(context.Background(), "avatars", "u1/face.png", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://acct.blob.core.windows.net/avatars/u1/face.png?"), raw)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "r", u.Query().Get("sp"))
	assert.NotEmpty(t, u.Query().Get("sig"))

	_, err = NewAzurePresigner(&config.StorageConfig{AzureAccountName: "acct"})
	require.Error(t, err)
}

func TestGCSPresigner_RequiresKeyFile(t *testing.T) {
	t.Parallel()

	_, err := NewGCSPresigner(context.Background(), &config.StorageConfig{})
	require.Error(t, err)
}
