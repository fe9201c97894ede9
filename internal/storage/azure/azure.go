// Package azure implements the Azure Blob Storage backend. QR images are served
// through short-lived SAS URLs, or through a CDN when cdn_url is configured.
package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/storage"
	"github.com/menuhub/menuhub/pkg/checksum"
)

func init() {
	storage.Register("azure", func(cfg *config.Config) (storage.Storage, error) {
		return New(&cfg.Storage.Azure)
	})
}

// clockSkew backdates SAS start times.
const clockSkew = 5 * time.Minute

// AzureStorage implements the Storage interface for Azure Blob Storage
type AzureStorage struct {
	client        *azblob.Client
	credential    *azblob.SharedKeyCredential
	serviceURL    string
	containerName string
	cdnURL        string
}

// New creates a new Azure Blob Storage backend
func New(cfg *config.AzureStorageConfig) (*AzureStorage, error) {
	if cfg.AccountName == "" {
		return nil, fmt.Errorf("azure storage account name is required")
	}
	if cfg.AccountKey == "" {
		return nil, fmt.Errorf("azure storage account key is required")
	}
	if cfg.ContainerName == "" {
		return nil, fmt.Errorf("azure storage container name is required")
	}

	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL+"/", credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
	}

	return &AzureStorage{
		client:        client,
		credential:    credential,
		serviceURL:    serviceURL,
		containerName: cfg.ContainerName,
		cdnURL:        strings.TrimRight(cfg.CDNURL, "/"),
	}, nil
}

func (s *AzureStorage) container() *container.Client {
	return s.client.ServiceClient().NewContainerClient(s.containerName)
}

func isNotFound(err error) bool {
	var re *azcore.ResponseError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// Put uploads a block blob with the SHA-256 in its metadata.
func (s *AzureStorage) Put(ctx context.Context, key string, body io.Reader, opts storage.PutOptions) (*storage.Object, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	sum := checksum.Sum(data)

	uploadOpts := &blockblob.UploadOptions{
		Metadata: map[string]*string{storage.ChecksumMetadataKey: &sum},
	}
	if opts.ContentType != "" || opts.CacheControl != "" {
		headers := &blob.HTTPHeaders{}
		if opts.ContentType != "" {
			headers.BlobContentType = &opts.ContentType
		}
		if opts.CacheControl != "" {
			headers.BlobCacheControl = &opts.CacheControl
		}
		uploadOpts.HTTPHeaders = headers
	}

	blobClient := s.container().NewBlockBlobClient(key)
	if _, err := blobClient.Upload(ctx, streaming.NopCloser(bytes.NewReader(data)), uploadOpts); err != nil {
		return nil, fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}

	return &storage.Object{
		Key:          key,
		Size:         int64(len(data)),
		Checksum:     sum,
		ContentType:  opts.ContentType,
		LastModified: time.Now(),
	}, nil
}

// Open streams a blob.
func (s *AzureStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.container().NewBlobClient(key).DownloadStream(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from Azure Blob: %w", err)
	}
	return resp.Body, nil
}

// Delete removes a blob. A missing blob is not an error.
func (s *AzureStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.container().NewBlobClient(key).Delete(ctx, nil); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete from Azure Blob: %w", err)
	}
	return nil
}

// URL returns the CDN URL when configured, otherwise a read-only SAS URL
// valid for ttl.
func (s *AzureStorage) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := s.Stat(ctx, key); err != nil {
		return "", err
	}

	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.cdnURL != "" {
		return s.cdnURL + "/" + escaped, nil
	}

	now := time.Now().UTC()
	params, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     now.Add(-clockSkew),
		ExpiryTime:    now.Add(ttl),
		Permissions:   (&sas.BlobPermissions{Read: true}).String(),
		ContainerName: s.containerName,
		BlobName:      key,
	}.SignWithSharedKey(s.credential)
	if err != nil {
		return "", fmt.Errorf("failed to generate SAS token: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s?%s", s.serviceURL, s.containerName, escaped, params.Encode()), nil
}

// Stat reads blob properties.
func (s *AzureStorage) Stat(ctx context.Context, key string) (*storage.Object, error) {
	props, err := s.container().NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blob properties: %w", err)
	}

	obj := &storage.Object{Key: key}
	// Metadata keys come back with header casing.
	for k, v := range props.Metadata {
		if strings.EqualFold(k, storage.ChecksumMetadataKey) && v != nil {
			obj.Checksum = *v
		}
	}
	if props.ContentLength != nil {
		obj.Size = *props.ContentLength
	}
	if props.ContentType != nil {
		obj.ContentType = *props.ContentType
	}
	if props.LastModified != nil {
		obj.LastModified = *props.LastModified
	}
	return obj, nil
}

// Ping checks that the container is reachable.
func (s *AzureStorage) Ping(ctx context.Context) error {
	if _, err := s.container().GetProperties(ctx, nil); err != nil {
		return fmt.Errorf("azure container %s unavailable: %w", s.containerName, err)
	}
	return nil
}
