// Package blob stores uploaded images on the local filesystem under one
// directory per bucket and serves them at the same public paths the hosted
// storage service uses.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"summit/internal/backend"
)

// DefaultMaxObjectBytes caps a single upload.
const DefaultMaxObjectBytes int64 = 10 << 20

var (
	// ErrObjectExists is returned when a key is already taken; uploads never overwrite.
	ErrObjectExists = errors.New("The resource already exists")
	// ErrBucketNotFound is returned for buckets the site does not use.
	ErrBucketNotFound = errors.New("Bucket not found")
	// ErrInvalidKey is returned for keys that would escape the bucket directory.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrObjectTooLarge is returned when an upload exceeds the configured cap.
	ErrObjectTooLarge = errors.New("The object exceeded the maximum allowed size")
)

// Store implements backend.Storage on a directory tree.
type Store struct {
	root     string
	baseURL  string
	maxBytes int64
}

// Option customises a Store.
type Option func(*Store)

// WithMaxObjectBytes overrides DefaultMaxObjectBytes. Non-positive values are ignored.
func WithMaxObjectBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// New returns a Store rooted at dir. Public URLs are built against baseURL.
func New(dir, baseURL string, opts ...Option) (*Store, error) {
	root := ResolvePath(dir, "")
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("blob store requires a directory: %w", backend.ErrNotConfigured)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	s := &Store{root: root, baseURL: baseURL, maxBytes: DefaultMaxObjectBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the resolved storage directory.
func (s *Store) Root() string {
	return s.root
}

// Upload writes body under bucket/key. Existing objects are never replaced.
func (s *Store) Upload(ctx context.Context, bucket, key string, body io.Reader, _ string) error {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return backend.Wrap(backend.OpUpload, bucket, err)
	}
	if err := ctx.Err(); err != nil {
		return backend.Wrap(backend.OpUpload, bucket, err)
	}
	if _, err := os.Stat(path); err == nil {
		return &backend.Error{Op: backend.OpUpload, Target: bucket, Status: 409, Message: ErrObjectExists.Error(), Err: ErrObjectExists}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backend.Wrap(backend.OpUpload, bucket, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return backend.Wrap(backend.OpUpload, bucket, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	n, err := io.Copy(tmp, io.LimitReader(body, s.maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return backend.Wrap(backend.OpUpload, bucket, err)
	}
	if n > s.maxBytes {
		cleanup()
		return &backend.Error{Op: backend.OpUpload, Target: bucket, Status: 413, Message: ErrObjectTooLarge.Error(), Err: ErrObjectTooLarge}
	}

	// Link fails when the key appeared concurrently, keeping uploads create-only.
	if err := os.Link(tmpName, path); err != nil {
		cleanup()
		if errors.Is(err, fs.ErrExist) {
			return &backend.Error{Op: backend.OpUpload, Target: bucket, Status: 409, Message: ErrObjectExists.Error(), Err: ErrObjectExists}
		}
		return backend.Wrap(backend.OpUpload, bucket, err)
	}
	cleanup()
	return nil
}

// PublicURL returns the public address of bucket/key.
func (s *Store) PublicURL(bucket, key string) string {
	return backend.PublicObjectURL(s.baseURL, bucket, key)
}

// Open returns the stored object for serving.
func (s *Store) Open(bucket, key string) (*os.File, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *Store) objectPath(bucket, key string) (string, error) {
	if !backend.KnownBucket(bucket) {
		return "", ErrBucketNotFound
	}
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(key)), nil
}

// ValidKey reports whether key stays inside its bucket directory.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".upload-") {
			return false
		}
	}
	return true
}

// ResolvePath expands a leading ~ and environment variables. An empty
// configured value falls back to defaultPath.
func ResolvePath(configured, defaultPath string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

var _ backend.Storage = (*Store)(nil)
