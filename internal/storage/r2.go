package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	appconfig "tourneypay/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// PublicBaseURL is optional; archives usually live in a private bucket.
	PublicBaseURL string
}

// R2ConfigFromEnv reads the R2_* variables.
func R2ConfigFromEnv() R2Config {
	return R2Config{
		AccountID:       appconfig.GetEnv("R2_ACCOUNT_ID", ""),
		AccessKeyID:     appconfig.GetEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: appconfig.GetEnv("R2_SECRET_ACCESS_KEY", ""),
		BucketName:      appconfig.GetEnv("R2_BUCKET", ""),
		PublicBaseURL:   appconfig.GetEnv("R2_PUBLIC_BASE_URL", ""),
	}
}

// Enabled reports whether enough settings are present to build an uploader.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

type r2Uploader struct {
	s3Client      *s3.Client
	bucketName    string
	publicBaseURL string
}

func NewR2Uploader(ctx context.Context, cfg R2Config) (FileUploader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("invalid R2 configuration: account, credentials and bucket are required")
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})

	return &r2Uploader{
		s3Client:      client,
		bucketName:    cfg.BucketName,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

func (u *r2Uploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	result, err := u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object to R2 (key: %s): %w", key, err)
	}

	location := u.GetPublicURL(key)
	if location == "" {
		location = fmt.Sprintf("r2://%s/%s", u.bucketName, key)
	}
	etag := ""
	if result.ETag != nil {
		etag = strings.Trim(*result.ETag, "\"")
	}

	return &UploadResult{Key: key, Location: location, ETag: etag}, nil
}

func (u *r2Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from R2 (key: %s): %w", key, err)
	}
	return nil
}

func (u *r2Uploader) GetPublicURL(key string) string {
	if u.publicBaseURL == "" || key == "" {
		return ""
	}
	base, err := url.Parse(strings.TrimSuffix(u.publicBaseURL, "/") + "/")
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
