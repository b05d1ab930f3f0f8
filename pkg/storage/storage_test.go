package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"p9e.in/fieldreport/pkg/apperr"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"photo.jpg", "photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\IMG 001.HEIC`, "IMG_001.HEIC"},
		{"sig<script>.png", "sigscript.png"},
		{"..", "file"},
		{"", "file"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestObjectPath(t *testing.T) {
	org, project := uuid.New(), uuid.New()

	p, err := ObjectPath(org, project, "draft-1", "/tmp/a b.jpg")
	if err != nil {
		t.Fatal(err)
	}
	expected := org.String() + "/" + project.String() + "/draft-1/a_b.jpg"
	if p != expected {
		t.Errorf("path = %q, expected %q", p, expected)
	}
	if err := CheckPath(p, org); err != nil {
		t.Errorf("CheckPath on built path: %v", err)
	}

	if _, err := ObjectPath(org, project, "../x", "a.jpg"); err == nil {
		t.Error("expected error for submission with a slash")
	}
	if _, err := ObjectPath(uuid.Nil, project, "s", "a.jpg"); err == nil {
		t.Error("expected error without org")
	}
}

func TestCheckPath(t *testing.T) {
	org := uuid.New()
	tests := []struct {
		name string
		path string
		kind apperr.Kind
	}{
		{"other org", uuid.NewString() + "/p/s/f.jpg", apperr.KindForbidden},
		{"too short", org.String() + "/f.jpg", apperr.KindValidation},
		{"traversal", org.String() + "/p/../f.jpg", apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(CheckPath(tt.path, org)); got != tt.kind {
				t.Errorf("kind = %v, expected %v", got, tt.kind)
			}
		})
	}
}

func TestClampTTL(t *testing.T) {
	tests := []struct {
		in       int64
		expected time.Duration
	}{
		{0, time.Hour},
		{-5, time.Hour},
		{300, 5 * time.Minute},
		{30 * 24 * 3600, 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := ClampTTL(tt.in); got != tt.expected {
			t.Errorf("ClampTTL(%d) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestLocalStore_PutAndServeSigned(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, "http://files.test", "secret")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	obj := "org/proj/sub/note.txt"

	if err := s.Put(ctx, BucketPhotos, obj, strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatal(err)
	}
	if b, err := os.ReadFile(filepath.Join(root, BucketPhotos, "org", "proj", "sub", "note.txt")); err != nil || string(b) != "hello" {
		t.Fatalf("file = %q, %v", b, err)
	}

	signed, err := s.SignedURL(ctx, BucketPhotos, obj, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Errorf("signed GET = %d %q", rec.Code, rec.Body.String())
	}

	q := u.Query()
	q.Set("sig", strings.Repeat("0", 64))
	u.RawQuery = q.Encode()
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("tampered GET = %d, expected 403", rec.Code)
	}
}

func TestLocalStore_Expiry(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "", "secret")
	if err != nil {
		t.Fatal(err)
	}
	start := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return start }

	signed, _ := s.SignedURL(context.Background(), BucketSignatures, "o/p/s/a.png", time.Hour)
	u, _ := url.Parse(signed)
	q := u.Query()

	if err := s.Verify(BucketSignatures, "o/p/s/a.png", q.Get("expires"), q.Get("sig")); err != nil {
		t.Errorf("fresh url rejected: %v", err)
	}
	if err := s.Verify(BucketSignatures, "o/p/s/b.png", q.Get("expires"), q.Get("sig")); err != ErrBadSignature {
		t.Errorf("other path err = %v, expected ErrBadSignature", err)
	}

	s.now = func() time.Time { return start.Add(2 * time.Hour) }
	if err := s.Verify(BucketSignatures, "o/p/s/a.png", q.Get("expires"), q.Get("sig")); err != ErrExpired {
		t.Errorf("old url err = %v, expected ErrExpired", err)
	}
}

func TestValidBucket(t *testing.T) {
	for _, b := range []string{BucketPhotos, BucketVoiceMemos, BucketSignatures} {
		if !ValidBucket(b) {
			t.Errorf("%s should be valid", b)
		}
	}
	if ValidBucket("private") {
		t.Error("unknown bucket accepted")
	}
}
