package storage_test

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/storage"
)

type stubStorage struct{}

func (stubStorage) Put(context.Context, string, io.Reader, storage.PutOptions) (*storage.Object, error) {
	return nil, nil
}
func (stubStorage) Open(context.Context, string) (io.ReadCloser, error) { return nil, nil }
func (stubStorage) Delete(context.Context, string) error                { return nil }
func (stubStorage) URL(context.Context, string, time.Duration) (string, error) {
	return "", nil
}
func (stubStorage) Stat(context.Context, string) (*storage.Object, error) { return nil, nil }
func (stubStorage) Ping(context.Context) error                            { return nil }

func TestRegister_AddsFactory(t *testing.T) {
	storage.Register("stub", func(_ *config.Config) (storage.Storage, error) {
		return stubStorage{}, nil
	})

	cfg := &config.Config{}
	cfg.Storage.DefaultBackend = "stub"

	s, err := storage.NewStorage(cfg)
	if err != nil {
		t.Fatalf("NewStorage() error: %v", err)
	}
	if s == nil {
		t.Fatal("NewStorage() returned nil")
	}
	if !slices.Contains(storage.Registered(), "stub") {
		t.Errorf("Registered() = %v, want stub listed", storage.Registered())
	}
}

func TestNewStorage_UnknownBackend(t *testing.T) {
	for _, name := range []string{"", "ftp"} {
		cfg := &config.Config{}
		cfg.Storage.DefaultBackend = name

		if _, err := storage.NewStorage(cfg); err == nil {
			t.Errorf("NewStorage(%q) = nil error, want error", name)
		}
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "qr/dar-tajine/menu.png", want: "qr/dar-tajine/menu.png"},
		{in: "/qr//x.png", want: "qr/x.png"},
		{in: "qr/../../etc/passwd", wantErr: true},
		{in: "..", wantErr: true},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: `qr\x.png`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := storage.CleanKey(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("CleanKey(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanKey(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("CleanKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
