package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignExpire(t *testing.T) {
	assert.Equal(t, 15*time.Minute, presignExpire(0))
	assert.Equal(t, 5*time.Minute, presignExpire(5))
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "me-central-1"}, nil)
	require.Error(t, err)
}

func TestPresignDownloadIsOffline(t *testing.T) {
	s, err := NewS3(context.Background(), S3Config{
		Region:               "me-central-1",
		AccessKeyID:          "AKIDEXAMPLE",
		SecretAccessKey:      "secret",
		ExportsBucket:        "card-exports",
		PresignExpireMinutes: 10,
	}, nil)
	require.NoError(t, err)

	before := time.Now()
	url, expires, err := s.PresignDownload(context.Background(), "id-cards/2025/12/28/x.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "card-exports")
	assert.Contains(t, url, "id-cards/2025/12/28/x.pdf")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.WithinDuration(t, before.Add(10*time.Minute), expires, 5*time.Second)
}
