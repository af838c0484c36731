package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestR2Config_Enabled(t *testing.T) {
	assert.False(t, R2Config{}.Enabled())
	assert.False(t, R2Config{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s"}.Enabled())
	assert.True(t, R2Config{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"}.Enabled())
}

func TestNewR2Uploader_RejectsIncompleteConfig(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{BucketName: "audit"})
	require.Error(t, err)
}

func TestGetPublicURL(t *testing.T) {
	u := &r2Uploader{bucketName: "audit", publicBaseURL: "https://files.example.com/archives"}
	assert.Equal(t, "https://files.example.com/archives/2026/log.csv", u.GetPublicURL("2026/log.csv"))
	assert.Equal(t, "https://files.example.com/archives/log.csv", u.GetPublicURL("/log.csv"))
	assert.Equal(t, "", u.GetPublicURL(""))

	private := &r2Uploader{bucketName: "audit"}
	assert.Equal(t, "", private.GetPublicURL("log.csv"))
}
