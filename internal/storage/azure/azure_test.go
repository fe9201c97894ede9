package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/storage"
	"github.com/menuhub/menuhub/pkg/checksum"
)

type storedBlob struct {
	content     []byte
	contentType string
	metadata    map[string]string
}

// newTestStorage points an AzureStorage at a handler imitating enough of the
// Blob REST API for object CRUD.
func newTestStorage(t *testing.T, cdnURL string) *AzureStorage {
	t.Helper()

	var mu sync.Mutex
	store := map[string]*storedBlob{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "restype=container") {
			w.WriteHeader(http.StatusOK)
			return
		}
		// path: /container/blob...
		key := strings.TrimPrefix(r.URL.Path, "/container/")

		mu.Lock()
		defer mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			meta := map[string]string{}
			for k, v := range r.Header {
				lk := strings.ToLower(k)
				if strings.HasPrefix(lk, "x-ms-meta-") && len(v) > 0 {
					meta[strings.TrimPrefix(lk, "x-ms-meta-")] = v[0]
				}
			}
			store[key] = &storedBlob{content: data, contentType: r.Header.Get("x-ms-blob-content-type"), metadata: meta}
			w.WriteHeader(http.StatusCreated)

		case http.MethodGet, http.MethodHead:
			b, ok := store[key]
			if !ok {
				w.Header().Set("x-ms-error-code", "BlobNotFound")
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Length", fmt.Sprintf("%d", len(b.content)))
			w.Header().Set("Content-Type", b.contentType)
			w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			for k, v := range b.metadata {
				w.Header().Set("x-ms-meta-"+k, v)
			}
			w.WriteHeader(http.StatusOK)
			if r.Method == http.MethodGet {
				w.Write(b.content)
			}

		case http.MethodDelete:
			if _, ok := store[key]; !ok {
				w.Header().Set("x-ms-error-code", "BlobNotFound")
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(store, key)
			w.WriteHeader(http.StatusAccepted)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := azblob.NewClientWithNoCredential(srv.URL, nil)
	if err != nil {
		t.Fatalf("failed to create azblob client: %v", err)
	}
	credential, err := azblob.NewSharedKeyCredential("account", "a2V5")
	if err != nil {
		t.Fatalf("failed to create credential: %v", err)
	}

	return &AzureStorage{
		client:        client,
		credential:    credential,
		serviceURL:    "https://account.blob.core.windows.net",
		containerName: "container",
		cdnURL:        cdnURL,
	}
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nazure")

func TestPutOpenStatDelete(t *testing.T) {
	s := newTestStorage(t, "")
	ctx := context.Background()

	obj, err := s.Put(ctx, "qr/slug/menu.png", bytes.NewReader(pngBytes), storage.PutOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if obj.Size != int64(len(pngBytes)) || obj.Checksum != checksum.Sum(pngBytes) {
		t.Fatalf("unexpected object: %+v", obj)
	}

	rc, err := s.Open(ctx, "qr/slug/menu.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, pngBytes) {
		t.Fatalf("content mismatch: %q", got)
	}

	st, err := s.Stat(ctx, "qr/slug/menu.png")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.Checksum != obj.Checksum {
		t.Errorf("Stat checksum = %q, want %q", st.Checksum, obj.Checksum)
	}
	if st.ContentType != "image/png" {
		t.Errorf("Stat content type = %q, want image/png", st.ContentType)
	}

	if err := s.Delete(ctx, "qr/slug/menu.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Stat(ctx, "qr/slug/menu.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Stat after delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "qr/slug/menu.png"); err != nil {
		t.Errorf("second Delete err = %v, want nil", err)
	}
}

func TestOpen_NotFound(t *testing.T) {
	s := newTestStorage(t, "")
	if _, err := s.Open(context.Background(), "qr/none.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Open err = %v, want ErrNotFound", err)
	}
}

func TestURL_SASAndCDN(t *testing.T) {
	ctx := context.Background()

	t.Run("sas", func(t *testing.T) {
		s := newTestStorage(t, "")
		if _, err := s.Put(ctx, "qr/a.png", bytes.NewReader(pngBytes), storage.PutOptions{}); err != nil {
			t.Fatal(err)
		}
		u, err := s.URL(ctx, "qr/a.png", time.Hour)
		if err != nil {
			t.Fatalf("URL failed: %v", err)
		}
		if !strings.HasPrefix(u, "https://account.blob.core.windows.net/container/qr/a.png?") {
			t.Errorf("URL = %q", u)
		}
		if !strings.Contains(u, "sig=") || !strings.Contains(u, "sp=r") {
			t.Errorf("URL = %q, want read-only signature", u)
		}
	})

	t.Run("cdn", func(t *testing.T) {
		s := newTestStorage(t, "https://cdn.menuhub.example")
		if _, err := s.Put(ctx, "qr/a.png", bytes.NewReader(pngBytes), storage.PutOptions{}); err != nil {
			t.Fatal(err)
		}
		u, err := s.URL(ctx, "qr/a.png", time.Hour)
		if err != nil {
			t.Fatalf("URL failed: %v", err)
		}
		if u != "https://cdn.menuhub.example/qr/a.png" {
			t.Errorf("URL = %q", u)
		}
	})

	t.Run("missing", func(t *testing.T) {
		s := newTestStorage(t, "")
		if _, err := s.URL(ctx, "qr/missing.png", time.Hour); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("URL err = %v, want ErrNotFound", err)
		}
	})
}

func TestPing(t *testing.T) {
	s := newTestStorage(t, "")
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping err = %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AzureStorageConfig
	}{
		{"missing account name", config.AzureStorageConfig{AccountKey: "a2V5", ContainerName: "qr"}},
		{"missing account key", config.AzureStorageConfig{AccountName: "acct", ContainerName: "qr"}},
		{"missing container", config.AzureStorageConfig{AccountName: "acct", AccountKey: "a2V5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if _, err := New(&cfg); err == nil {
				t.Error("New() = nil error, want error")
			}
		})
	}
}
