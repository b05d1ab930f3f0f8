package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore talks to any S3-compatible endpoint
type MinIOStore struct {
	client *minio.Client
	prefix string
}

// NewMinIOStore connects and creates the logical buckets if missing
func NewMinIOStore(ctx context.Context, endpoint, accessKey, secretKey string, useSSL bool, bucketPrefix string) (*MinIOStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	s := &MinIOStore{client: client, prefix: bucketPrefix}
	for _, b := range []string{BucketPhotos, BucketVoiceMemos, BucketSignatures} {
		name := s.prefix + b
		exists, err := client.BucketExists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s: %w", name, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, name, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
	}
	return s, nil
}

func (s *MinIOStore) Put(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.prefix+bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", path, err)
	}
	return nil
}

func (s *MinIOStore) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.prefix+bucket, path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", path, err)
	}
	return u.String(), nil
}
