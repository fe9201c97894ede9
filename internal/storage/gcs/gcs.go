// Package gcs implements the Google Cloud Storage backend. QR images are
// handed out as V4 signed URLs. Supports Application Default Credentials,
// service account JSON keys, and Workload Identity Federation.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	appconfig "github.com/menuhub/menuhub/internal/config"
	appstorage "github.com/menuhub/menuhub/internal/storage"
	"github.com/menuhub/menuhub/pkg/checksum"
)

func init() {
	appstorage.Register("gcs", func(cfg *appconfig.Config) (appstorage.Storage, error) {
		return New(&cfg.Storage.GCS)
	})
}

// GCSStorage implements the Storage interface for Google Cloud Storage
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// clientOptions resolves the configured auth method into client options.
// An empty auth method means service_account when credentials are present and
// ADC otherwise.
func clientOptions(cfg *appconfig.GCSStorageConfig) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	authMethod := cfg.AuthMethod
	if authMethod == "" {
		if cfg.CredentialsFile != "" || cfg.CredentialsJSON != "" {
			authMethod = "service_account"
		} else {
			authMethod = "default"
		}
	}

	switch authMethod {
	case "service_account":
		switch {
		case cfg.CredentialsJSON != "":
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
		case cfg.CredentialsFile != "":
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		default:
			return nil, fmt.Errorf("credentials_file or credentials_json is required for service_account auth")
		}
	case "workload_identity", "default":
		// ADC covers GOOGLE_APPLICATION_CREDENTIALS, the metadata server and gcloud.
	case "none":
		// Emulators only.
		opts = append(opts, option.WithoutAuthentication())
	default:
		return nil, fmt.Errorf("unsupported auth_method: %s (must be 'default', 'service_account', 'workload_identity' or 'none')", authMethod)
	}
	return opts, nil
}

// New creates a new Google Cloud Storage backend.
func New(cfg *appconfig.GCSStorageConfig) (*GCSStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{client: client, bucket: cfg.Bucket}, nil
}

// Close closes the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(key)
}

// Put writes an object with the SHA-256 stored in its custom metadata.
func (s *GCSStorage) Put(ctx context.Context, key string, body io.Reader, opts appstorage.PutOptions) (*appstorage.Object, error) {
	key, err := appstorage.CleanKey(key)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	sum := checksum.Sum(data)

	writer := s.object(key).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	writer.CacheControl = opts.CacheControl
	writer.Metadata = map[string]string{appstorage.ChecksumMetadataKey: sum}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize GCS upload: %w", err)
	}

	obj := &appstorage.Object{
		Key:          key,
		Size:         int64(len(data)),
		Checksum:     sum,
		ContentType:  opts.ContentType,
		LastModified: time.Now(),
	}
	if attrs := writer.Attrs(); attrs != nil {
		obj.LastModified = attrs.Updated
	}
	return obj, nil
}

// Open streams an object.
func (s *GCSStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, appstorage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read from GCS: %w", err)
	}
	return reader, nil
}

// Delete removes an object. A missing object is not an error.
func (s *GCSStorage) Delete(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete from GCS: %w", err)
	}
	return nil
}

// URL returns a V4 signed GET URL. Signing needs a service account key or
// iam.serviceAccountTokenCreator when running on ADC.
func (s *GCSStorage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.Stat(ctx, key); err != nil {
		return "", err
	}

	u, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return u, nil
}

// Stat reads object attributes.
func (s *GCSStorage) Stat(ctx context.Context, key string) (*appstorage.Object, error) {
	attrs, err := s.object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, appstorage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", err)
	}

	return &appstorage.Object{
		Key:          key,
		Size:         attrs.Size,
		Checksum:     attrs.Metadata[appstorage.ChecksumMetadataKey],
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
	}, nil
}

// Ping checks that the bucket is reachable.
func (s *GCSStorage) Ping(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %s unavailable: %w", s.bucket, err)
	}
	return nil
}
