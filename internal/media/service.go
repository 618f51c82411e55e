// Package media stores post attachments in S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds object storage settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Service uploads and serves media objects for posts.
type Service struct {
	client *minio.Client
	bucket string
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"video/mp4":       {},
	"video/quicktime": {},
}

// NewService connects to the object store and ensures the bucket exists.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Service{client: client, bucket: cfg.Bucket}, nil
}

// ValidContentType reports whether uploads of this type are accepted.
func ValidContentType(contentType string) bool {
	_, ok := allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// ObjectKey builds the storage key for an asset. Keys are namespaced by
// client and post so cleanup per tenant is a prefix operation.
func ObjectKey(clientID, postID, assetID, fileName string) string {
	ext := path.Ext(fileName)
	return fmt.Sprintf("clients/%s/posts/%s/%s%s", clientID, postID, assetID, ext)
}

// Upload stores an object and returns its key.
func (s *Service) Upload(ctx context.Context, key, contentType string, size int64, r io.Reader) error {
	if !ValidContentType(contentType) {
		return fmt.Errorf("unsupported content type %q", contentType)
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a time-limited download URL for an object.
func (s *Service) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes an object.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
