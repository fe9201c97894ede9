// Package qrcode renders the QR codes printed on restaurant tables. A code
// points at the public menu page, optionally tagged with the table label.
package qrcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	qr "github.com/skip2/go-qrcode"

	"github.com/menuhub/menuhub/internal/slug"
	"github.com/menuhub/menuhub/internal/storage"
	"github.com/menuhub/menuhub/internal/telemetry"
)

const (
	// MinSize is the smallest PNG edge, in pixels, that still scans reliably
	// from a printed table card.
	MinSize = 128

	contentType  = "image/png"
	cacheControl = "public, max-age=86400"
	urlTTL       = 7 * 24 * time.Hour
)

// ErrEmptyContent is returned when asked to encode nothing.
var ErrEmptyContent = errors.New("qrcode: empty content")

// TargetURL is the address a code resolves to: <appURL>/<slug>, plus
// ?table=<label> for table codes.
func TargetURL(appURL, orgSlug, table string) string {
	target := strings.TrimRight(appURL, "/") + "/" + url.PathEscape(orgSlug)
	if table = strings.TrimSpace(table); table != "" {
		target += "?" + url.Values{"table": {table}}.Encode()
	}
	return target
}

// StorageKey is qr/<slug>/<table>.png, or qr/<slug>/menu.png without a table.
func StorageKey(orgSlug, table string) string {
	name := slug.Slugify(table)
	if name == "" {
		name = "menu"
	}
	return fmt.Sprintf("qr/%s/%s.png", orgSlug, name)
}

// Kind is the metrics label for a code.
func Kind(table string) string {
	if strings.TrimSpace(table) == "" {
		return "menu"
	}
	return "table"
}

// Render encodes content as a PNG of size x size pixels with medium error
// correction.
func Render(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	png, err := qr.Encode(content, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// Generator renders codes for tenants and keeps them in object storage.
type Generator struct {
	store       storage.Storage
	appURL      string
	defaultSize int
	maxSize     int
}

// NewGenerator creates a Generator. Sizes outside [MinSize, maxSize] are
// clamped on every call.
func NewGenerator(store storage.Storage, appURL string, defaultSize, maxSize int) *Generator {
	if maxSize < MinSize {
		maxSize = MinSize
	}
	return &Generator{
		store:       store,
		appURL:      appURL,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}
}

// Size resolves a requested size; zero selects the default.
func (g *Generator) Size(requested int) int {
	if requested <= 0 {
		requested = g.defaultSize
	}
	return min(max(requested, MinSize), g.maxSize)
}

// Stored describes a code written to storage.
type Stored struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	TargetURL string `json:"target_url"`
	Checksum  string `json:"checksum"`
	Size      int    `json:"size"`
}

// PNG renders a code without storing it.
func (g *Generator) PNG(orgSlug, table string, size int) ([]byte, error) {
	png, err := Render(TargetURL(g.appURL, orgSlug, table), g.Size(size))
	if err != nil {
		return nil, err
	}
	telemetry.QRCodesGeneratedTotal.WithLabelValues(Kind(table), "streamed").Inc()
	return png, nil
}

// Store renders a code, writes it to storage and returns a fetchable URL.
// An existing object at the same key is overwritten.
func (g *Generator) Store(ctx context.Context, orgSlug, table string, size int) (*Stored, error) {
	size = g.Size(size)
	target := TargetURL(g.appURL, orgSlug, table)
	png, err := Render(target, size)
	if err != nil {
		return nil, err
	}

	key := StorageKey(orgSlug, table)
	obj, err := g.store.Put(ctx, key, bytes.NewReader(png), storage.PutOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store QR code: %w", err)
	}

	u, err := g.store.URL(ctx, obj.Key, urlTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve QR code URL: %w", err)
	}
	telemetry.QRCodesGeneratedTotal.WithLabelValues(Kind(table), "stored").Inc()

	return &Stored{
		Key:       obj.Key,
		URL:       u,
		TargetURL: target,
		Checksum:  obj.Checksum,
		Size:      size,
	}, nil
}
