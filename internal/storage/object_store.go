// Package storage models the object-store collaborator: named buckets
// holding binary objects addressable by path, with public URLs.
package storage

// Bucket describes a bucket and its upload constraints.
type Bucket struct {
	Name             string   `json:"name"`
	Public           bool     `json:"public"`
	FileSizeLimit    int64    `json:"file_size_limit"`
	AllowedMimeTypes []string `json:"allowed_mime_types"`
}

// ObjectStore is the interface the handlers program against. Upload with
// upsert overwrites an existing object at the same path; without it an
// existing object is an error.
type ObjectStore interface {
	ListBuckets() ([]Bucket, error)
	CreateBucket(bucket Bucket) error
	// Upload stores data under bucket/path and returns the stored path.
	Upload(bucket, path string, data []byte, contentType string, upsert bool) (string, error)
	// Remove deletes the given objects. Missing objects are an error.
	Remove(bucket string, paths []string) error
	// PublicURL returns the URL the object is served from.
	PublicURL(bucket, path string) string
}
