package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// bucketMetaFile holds the bucket config inside each bucket directory. It is
// hidden from object listings by its leading dot.
const bucketMetaFile = ".bucket.json"

// LocalStore is a disk-backed ObjectStore. Each bucket is a directory under
// root; objects live at root/<bucket>/<path>. The application serves root
// statically, so PublicURL is baseURL + /storage/<bucket>/<path>.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the store root if needed and returns a LocalStore.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// ListBuckets returns every bucket directory with parseable metadata.
func (s *LocalStore) ListBuckets() ([]Bucket, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	buckets := make([]Bucket, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.readBucketMeta(entry.Name())
		if err != nil {
			continue // not a bucket directory
		}
		buckets = append(buckets, meta)
	}
	return buckets, nil
}

// CreateBucket creates the bucket directory and writes its metadata.
func (s *LocalStore) CreateBucket(bucket Bucket) error {
	if bucket.Name == "" {
		return fmt.Errorf("bucket name is required")
	}
	dir := filepath.Join(s.root, bucket.Name)
	if _, err := os.Stat(filepath.Join(dir, bucketMetaFile)); err == nil {
		return fmt.Errorf("bucket %s already exists", bucket.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket.Name, err)
	}
	meta, err := json.Marshal(bucket)
	if err != nil {
		return fmt.Errorf("failed to marshal bucket metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, bucketMetaFile), meta, 0o644); err != nil {
		return fmt.Errorf("failed to write bucket metadata: %w", err)
	}
	return nil
}

// Upload writes data under bucket/path, enforcing the bucket's size limit
// and MIME whitelist.
func (s *LocalStore) Upload(bucket, path string, data []byte, contentType string, upsert bool) (string, error) {
	meta, err := s.readBucketMeta(bucket)
	if err != nil {
		return "", fmt.Errorf("bucket %s not found: %w", bucket, err)
	}
	if meta.FileSizeLimit > 0 && int64(len(data)) > meta.FileSizeLimit {
		return "", fmt.Errorf("object exceeds bucket size limit of %d bytes", meta.FileSizeLimit)
	}
	if len(meta.AllowedMimeTypes) > 0 && !contains(meta.AllowedMimeTypes, contentType) {
		return "", fmt.Errorf("content type %s not allowed in bucket %s", contentType, bucket)
	}

	full, err := s.objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	if !upsert {
		if _, statErr := os.Stat(full); statErr == nil {
			return "", fmt.Errorf("object %s already exists in bucket %s", path, bucket)
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes the given objects from the bucket.
func (s *LocalStore) Remove(bucket string, paths []string) error {
	for _, path := range paths {
		full, err := s.objectPath(bucket, path)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil {
			return fmt.Errorf("failed to remove object %s: %w", path, err)
		}
	}
	return nil
}

// PublicURL returns the URL the object is served from via the app's static
// /storage route.
func (s *LocalStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/%s/%s", s.baseURL, bucket, path)
}

func (s *LocalStore) readBucketMeta(name string) (Bucket, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, name, bucketMetaFile))
	if err != nil {
		return Bucket{}, err
	}
	var bucket Bucket
	if err := json.Unmarshal(raw, &bucket); err != nil {
		return Bucket{}, fmt.Errorf("invalid bucket metadata for %s: %w", name, err)
	}
	return bucket, nil
}

// objectPath resolves an object path inside the bucket, rejecting traversal
// outside the bucket directory.
func (s *LocalStore) objectPath(bucket, path string) (string, error) {
	if path == "" || strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return filepath.Join(s.root, bucket, filepath.Clean(path)), nil
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
