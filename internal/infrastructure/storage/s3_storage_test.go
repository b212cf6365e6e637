package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3Archive_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3Archive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3Archive(&config.StorageConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half credentials", func(t *testing.T) {
		_, err := NewS3Archive(&config.StorageConfig{Bucket: "prints", AccessKeyID: "key"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "set together")
	})

	t.Run("valid config", func(t *testing.T) {
		archive, err := NewS3Archive(&config.StorageConfig{
			Bucket:          "prints",
			Endpoint:        "localhost:9000",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			UsePathStyle:    true,
			Prefix:          "/vouchers/",
		}, WithPresignExpiration(time.Minute), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "prints", archive.Bucket())
		assert.Equal(t, time.Minute, archive.presignExpiration)
		assert.Equal(t, "vouchers/2025/03/a.pdf", archive.ObjectKey("/2025/03/a.pdf"))
	})

	t.Run("defaults", func(t *testing.T) {
		archive, err := NewS3Archive(&config.StorageConfig{Bucket: "prints", AccessKeyID: "key", SecretAccessKey: "secret"})
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiration, archive.presignExpiration)
		assert.Equal(t, "2025/03/a.pdf", archive.ObjectKey("2025/03/a.pdf"))
	})
}

func TestS3Archive_EmptyKeys(t *testing.T) {
	archive, err := NewS3Archive(&config.StorageConfig{Bucket: "prints", AccessKeyID: "key", SecretAccessKey: "secret"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = archive.Upload(ctx, "", []byte("x"))
	assert.Error(t, err)
	_, _, err = archive.DownloadURL(ctx, "", 0)
	assert.Error(t, err)
	assert.Error(t, archive.Delete(ctx, ""))
	_, err = archive.Exists(ctx, "")
	assert.Error(t, err)
}

func TestS3Archive_PresignDoesNotCallServer(t *testing.T) {
	archive, err := NewS3Archive(&config.StorageConfig{
		Bucket:          "prints",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	link, expires, err := archive.DownloadURL(context.Background(), "2025/03/a.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:9000/prints/2025/03/a.pdf?"))
	assert.Contains(t, link, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)
}

// Runs against a live S3-compatible endpoint when SCHOOLADMIN_TEST_S3_ENDPOINT is set.
func TestS3Archive_Integration(t *testing.T) {
	endpoint := os.Getenv("SCHOOLADMIN_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("SCHOOLADMIN_TEST_S3_ENDPOINT not set")
	}
	archive, err := NewS3Archive(&config.StorageConfig{
		Bucket:          "schooladmin-test",
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("SCHOOLADMIN_TEST_S3_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("SCHOOLADMIN_TEST_S3_SECRET_KEY"),
		UsePathStyle:    true,
		Prefix:          "it",
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, archive.EnsureBucket(ctx))

	key, err := archive.Upload(ctx, "2025/03/test.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "it/2025/03/test.pdf", key)

	ok, err := archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, archive.Delete(ctx, key))
	ok, err = archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
