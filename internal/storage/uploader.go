// Package storage uploads generated artifacts (audit archives) to object storage.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag"`
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
