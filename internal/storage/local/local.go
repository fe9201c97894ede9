// Package local implements the filesystem storage backend. It suits development
// and single-node deployments; several server instances would need a shared
// volume.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/storage"
	"github.com/menuhub/menuhub/pkg/checksum"
)

func init() {
	storage.Register("local", func(cfg *config.Config) (storage.Storage, error) {
		return New(&cfg.Storage.Local, cfg.Server.GetBaseURL())
	})
}

// FilesRoute is the router prefix under which local objects are served.
const FilesRoute = "/files/"

// LocalStorage implements the Storage interface for local filesystem storage
type LocalStorage struct {
	basePath      string
	serveDirectly bool
	baseURL       string
}

// New creates a new local filesystem storage backend
func New(cfg *config.LocalStorageConfig, serverBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.BasePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:      cfg.BasePath,
		serveDirectly: cfg.ServeDirectly,
		baseURL:       serverBaseURL,
	}, nil
}

func (s *LocalStorage) resolve(key string) (string, string, error) {
	clean, err := storage.CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

// Put writes the object to a temporary file and renames it into place so
// readers never observe a partial image.
func (s *LocalStorage) Put(ctx context.Context, key string, body io.Reader, opts storage.PutOptions) (*storage.Object, error) {
	clean, fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(clean))
	}

	return &storage.Object{
		Key:          clean,
		Size:         written,
		Checksum:     hex.EncodeToString(hasher.Sum(nil)),
		ContentType:  contentType,
		LastModified: time.Now(),
	}, nil
}

// Open retrieves a file from the local filesystem
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_, fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a file and prunes parent directories left empty.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	_, fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	base := filepath.Clean(s.basePath)
	for dir := filepath.Dir(fullPath); dir != base && len(dir) > len(base); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// URL returns the public /files link when serve_directly is enabled, and a
// file:// URL otherwise. ttl is ignored.
func (s *LocalStorage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	obj, err := s.Stat(ctx, key)
	if err != nil {
		return "", err
	}

	if s.serveDirectly {
		return s.baseURL + FilesRoute + (&url.URL{Path: obj.Key}).EscapedPath(), nil
	}

	_, fullPath, _ := s.resolve(obj.Key)
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(fullPath)}).String(), nil
}

// Stat returns file metadata. The checksum is computed by reading the file.
func (s *LocalStorage) Stat(ctx context.Context, key string) (*storage.Object, error) {
	clean, fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file metadata: %w", err)
	}
	if info.IsDir() {
		return nil, storage.ErrNotFound
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for checksum: %w", err)
	}
	defer file.Close()

	sum, err := checksum.CalculateSHA256(file)
	if err != nil {
		return nil, err
	}

	return &storage.Object{
		Key:          clean,
		Size:         info.Size(),
		Checksum:     sum,
		ContentType:  mime.TypeByExtension(filepath.Ext(clean)),
		LastModified: info.ModTime(),
	}, nil
}

// Ping checks that the base directory is still present.
func (s *LocalStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.basePath)
	}
	return nil
}
