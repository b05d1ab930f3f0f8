package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadSignature = errors.New("signature does not match")
	ErrExpired      = errors.New("signed url expired")
)

// LocalStore keeps objects on disk for development. Signed URLs point at
// Handler, which checks an HMAC over bucket, path and expiry.
type LocalStore struct {
	root    string
	baseURL string
	key     []byte
	now     func() time.Time
}

func NewLocalStore(root, baseURL, signingKey string) (*LocalStore, error) {
	if root == "" {
		root = "./uploads"
	}
	if signingKey == "" {
		return nil, errors.New("local storage needs a signing key")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     []byte(signingKey),
		now:     time.Now,
	}, nil
}

func (s *LocalStore) file(bucket, p string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(p))
}

func (s *LocalStore) Put(_ context.Context, bucket, p string, r io.Reader, _ int64, _ string) error {
	dst := s.file(bucket, p)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *LocalStore) SignedURL(_ context.Context, bucket, p string, ttl time.Duration) (string, error) {
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", s.sign(bucket, p, expires))
	return fmt.Sprintf("%s/files/%s/%s?%s", s.baseURL, bucket, p, q.Encode()), nil
}

func (s *LocalStore) sign(bucket, p string, expires int64) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s\n%s\n%d", bucket, p, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by SignedURL
func (s *LocalStore) Verify(bucket, p, expires, sig string) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(bucket, p, exp))) {
		return ErrBadSignature
	}
	if s.now().Unix() > exp {
		return ErrExpired
	}
	return nil
}

// Handler serves /files/{bucket}/{path...} for valid signed URLs
func (s *LocalStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/files/")
		bucket, p, ok := strings.Cut(rest, "/")
		if !ok || !ValidBucket(bucket) || strings.Contains(p, "..") {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if err := s.Verify(bucket, p, q.Get("expires"), q.Get("sig")); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.ServeFile(w, r, s.file(bucket, p))
	})
}
