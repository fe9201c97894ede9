package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/storage"
	"github.com/menuhub/menuhub/pkg/checksum"
)

// newTestStorage creates a LocalStorage backed by a temporary directory.
func newTestStorage(t *testing.T, serveDirectly bool) *LocalStorage {
	t.Helper()
	cfg := &config.LocalStorageConfig{
		BasePath:      t.TempDir(),
		ServeDirectly: serveDirectly,
	}
	s, err := New(cfg, "https://menuhub.example")
	if err != nil {
		t.Fatal("New:", err)
	}
	return s
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nnot really a png")

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	subDir := filepath.Join(t.TempDir(), "a", "b", "c")
	if _, err := New(&config.LocalStorageConfig{BasePath: subDir}, "http://localhost"); err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := os.Stat(subDir); os.IsNotExist(err) {
		t.Error("New() did not create base directory")
	}
}

// ---------------------------------------------------------------------------
// Put / Open / Stat
// ---------------------------------------------------------------------------

func TestPutOpenStat(t *testing.T) {
	s := newTestStorage(t, true)
	ctx := context.Background()

	obj, err := s.Put(ctx, "qr/dar-tajine/menu.png", bytes.NewReader(pngBytes), storage.PutOptions{})
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if obj.Key != "qr/dar-tajine/menu.png" {
		t.Errorf("Key = %q", obj.Key)
	}
	if obj.Size != int64(len(pngBytes)) {
		t.Errorf("Size = %d, want %d", obj.Size, len(pngBytes))
	}
	if obj.Checksum != checksum.Sum(pngBytes) {
		t.Errorf("Checksum = %q, want %q", obj.Checksum, checksum.Sum(pngBytes))
	}
	if obj.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", obj.ContentType)
	}

	rc, err := s.Open(ctx, "qr/dar-tajine/menu.png")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, pngBytes) {
		t.Error("Open() returned different content")
	}

	st, err := s.Stat(ctx, "qr/dar-tajine/menu.png")
	if err != nil {
		t.Fatalf("Stat() error: %v", err)
	}
	if st.Checksum != obj.Checksum || st.Size != obj.Size {
		t.Errorf("Stat() = %+v, want checksum/size of Put", st)
	}
}

func TestPut_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	s := newTestStorage(t, false)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		if _, err := s.Put(ctx, "qr/x/menu.png", strings.NewReader(body), storage.PutOptions{}); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(s.basePath, "qr", "x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
	data, _ := os.ReadFile(filepath.Join(s.basePath, "qr", "x", "menu.png"))
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}
}

func TestPut_RejectsTraversal(t *testing.T) {
	s := newTestStorage(t, false)
	if _, err := s.Put(context.Background(), "../escape.png", strings.NewReader("x"), storage.PutOptions{}); err == nil {
		t.Error("Put() with traversal key should fail")
	}
}

func TestOpenStat_NotFound(t *testing.T) {
	s := newTestStorage(t, false)
	ctx := context.Background()

	if _, err := s.Open(ctx, "qr/missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Open() err = %v, want ErrNotFound", err)
	}
	if _, err := s.Stat(ctx, "qr/missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Stat() err = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_PrunesEmptyDirs(t *testing.T) {
	s := newTestStorage(t, false)
	ctx := context.Background()

	if _, err := s.Put(ctx, "qr/slug/t1.png", bytes.NewReader(pngBytes), storage.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "qr/slug/t1.png"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.basePath, "qr")); !os.IsNotExist(err) {
		t.Error("empty parent directories should be removed")
	}
	if _, err := os.Stat(s.basePath); err != nil {
		t.Errorf("base path must survive: %v", err)
	}
}

func TestDelete_MissingIsNoop(t *testing.T) {
	s := newTestStorage(t, false)
	if err := s.Delete(context.Background(), "qr/none.png"); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

// ---------------------------------------------------------------------------
// URL / Ping
// ---------------------------------------------------------------------------

func TestURL(t *testing.T) {
	ctx := context.Background()

	t.Run("serve directly", func(t *testing.T) {
		s := newTestStorage(t, true)
		if _, err := s.Put(ctx, "qr/a b/menu.png", bytes.NewReader(pngBytes), storage.PutOptions{}); err != nil {
			t.Fatal(err)
		}
		got, err := s.URL(ctx, "qr/a b/menu.png", 0)
		if err != nil {
			t.Fatalf("URL() error: %v", err)
		}
		if got != "https://menuhub.example/files/qr/a%20b/menu.png" {
			t.Errorf("URL() = %q", got)
		}
	})

	t.Run("file url", func(t *testing.T) {
		s := newTestStorage(t, false)
		if _, err := s.Put(ctx, "qr/menu.png", bytes.NewReader(pngBytes), storage.PutOptions{}); err != nil {
			t.Fatal(err)
		}
		got, err := s.URL(ctx, "qr/menu.png", 0)
		if err != nil {
			t.Fatalf("URL() error: %v", err)
		}
		if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/qr/menu.png") {
			t.Errorf("URL() = %q", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		s := newTestStorage(t, true)
		if _, err := s.URL(ctx, "qr/missing.png", 0); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("URL() err = %v, want ErrNotFound", err)
		}
	})
}

func TestPing(t *testing.T) {
	s := newTestStorage(t, false)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	os.RemoveAll(s.basePath)
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail once the directory is gone")
	}
}
