package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSStore writes to Google Cloud Storage and signs V4 URLs with the
// service account the client was created from.
type GCSStore struct {
	client *gcs.Client
	prefix string
}

func NewGCSStore(ctx context.Context, bucketPrefix string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, prefix: bucketPrefix}, nil
}

func (s *GCSStore) bucket(name string) *gcs.BucketHandle {
	return s.client.Bucket(s.prefix + name)
}

func (s *GCSStore) Put(ctx context.Context, bucket, path string, r io.Reader, _ int64, contentType string) error {
	w := s.bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("gcs write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", path, err)
	}
	return nil
}

func (s *GCSStore) SignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return s.bucket(bucket).SignedURL(path, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
