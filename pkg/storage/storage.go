// Package storage uploads form attachments and hands out short-lived
// signed URLs for reading them back. Objects live in one of three logical
// buckets under {org}/{project}/{submission}/{filename}.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Logical buckets
const (
	BucketPhotos     = "photos"
	BucketVoiceMemos = "voice-memos"
	BucketSignatures = "signatures"
)

const (
	DefaultSignedURLTTL = time.Hour
	MaxSignedURLTTL     = 7 * 24 * time.Hour
)

// ObjectStore is implemented by each backend
type ObjectStore interface {
	Put(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) error
	SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
}

// Backend names accepted in configuration
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
	BackendMinIO = "minio"
)

type Options struct {
	Backend      string
	BucketPrefix string

	LocalRoot    string
	LocalBaseURL string
	SigningKey   string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
}

// Open builds the configured backend
func Open(ctx context.Context, o Options) (ObjectStore, error) {
	switch o.Backend {
	case BackendGCS:
		return NewGCSStore(ctx, o.BucketPrefix)
	case BackendMinIO:
		return NewMinIOStore(ctx, o.MinIOEndpoint, o.MinIOAccessKey, o.MinIOSecretKey, o.MinIOUseSSL, o.BucketPrefix)
	case BackendLocal, "":
		return NewLocalStore(o.LocalRoot, o.LocalBaseURL, o.SigningKey)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", o.Backend)
	}
}

// ValidBucket reports whether b is one of the logical buckets
func ValidBucket(b string) bool {
	switch b {
	case BucketPhotos, BucketVoiceMemos, BucketSignatures:
		return true
	}
	return false
}

// ClampTTL turns a requested lifetime in seconds into the one actually
// granted. Zero or negative means the default.
func ClampTTL(seconds int64) time.Duration {
	if seconds <= 0 {
		return DefaultSignedURLTTL
	}
	ttl := time.Duration(seconds) * time.Second
	if ttl > MaxSignedURLTTL {
		return MaxSignedURLTTL
	}
	return ttl
}
