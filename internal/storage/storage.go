// Package storage keeps generated assets (QR code images) in an object store.
//
// Backends register themselves from init() in their own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (storage.Storage, error) {
//	        return New(&cfg.Storage.MyBackend)
//	    })
//	}
//
// The server blank-imports every backend package and selects one with
// storage.default_backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the interface for all storage backends
type Storage interface {
	// Put stores the object under key and returns its size and SHA-256.
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (*Object, error)

	// Open returns a reader for the object, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link clients can fetch the object from. Cloud backends
	// sign the URL for ttl; the local backend points at the /files route.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Stat returns object metadata without reading the body, or ErrNotFound.
	Stat(ctx context.Context, key string) (*Object, error)

	// Ping verifies the backend is reachable, for readiness checks.
	Ping(ctx context.Context) error
}

// PutOptions carries optional object headers.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// Object describes a stored object.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ChecksumMetadataKey is the object metadata entry holding the SHA-256 of the body.
const ChecksumMetadataKey = "sha256"

// CleanKey normalizes an object key and rejects keys that would escape the
// store root.
func CleanKey(key string) (string, error) {
	if strings.ContainsRune(key, '\\') {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
