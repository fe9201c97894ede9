// Package audit copies audit records to destinations outside the database:
// a webhook (usually a SIEM intake) and an append-only JSON-lines file. The
// database row written by the audit middleware stays the source of truth.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/menuhub/menuhub/internal/config"
)

// LogEntry is the wire form of one audit record.
type LogEntry struct {
	Timestamp      time.Time      `json:"timestamp"`
	Action         string         `json:"action"`
	UserID         string         `json:"user_id,omitempty"`
	OrganizationID string         `json:"organization_id,omitempty"`
	ResourceType   string         `json:"resource_type,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	StatusCode     int            `json:"status_code,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Shipper sends entries to one destination.
type Shipper interface {
	Ship(ctx context.Context, entry *LogEntry) error
	Close() error
}

// MultiShipper fans an entry out to every configured shipper.
type MultiShipper struct {
	shippers []Shipper
}

// NewFromConfig builds the shippers enabled in cfg. With neither a webhook
// nor a file configured the result ships nowhere.
func NewFromConfig(cfg *config.AuditConfig) (*MultiShipper, error) {
	ms := &MultiShipper{}
	if cfg.WebhookURL != "" {
		ms.shippers = append(ms.shippers, NewWebhookShipper(cfg.WebhookURL, cfg.WebhookHeaders, 10*time.Second))
	}
	if cfg.FilePath != "" {
		fs, err := NewFileShipper(cfg.FilePath)
		if err != nil {
			ms.Close()
			return nil, err
		}
		ms.shippers = append(ms.shippers, fs)
	}
	return ms, nil
}

// Len reports how many destinations are configured.
func (ms *MultiShipper) Len() int {
	return len(ms.shippers)
}

// Ship sends to every shipper and joins their errors.
func (ms *MultiShipper) Ship(ctx context.Context, entry *LogEntry) error {
	var errs []error
	for _, s := range ms.shippers {
		if err := s.Ship(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every shipper.
func (ms *MultiShipper) Close() error {
	var errs []error
	for _, s := range ms.shippers {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WebhookShipper POSTs each entry as JSON.
type WebhookShipper struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookShipper creates a webhook shipper.
func NewWebhookShipper(url string, headers map[string]string, timeout time.Duration) *WebhookShipper {
	return &WebhookShipper{url: url, headers: headers, client: &http.Client{Timeout: timeout}}
}

func (ws *WebhookShipper) Ship(ctx context.Context, entry *LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range ws.headers {
		req.Header.Set(k, v)
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send audit webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("audit webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (ws *WebhookShipper) Close() error { return nil }

// FileShipper appends one JSON object per line. Rotation is left to the host
// (logrotate with copytruncate).
type FileShipper struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileShipper opens path for appending, creating it with mode 0600.
func NewFileShipper(path string) (*FileShipper, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	return &FileShipper{file: f}, nil
}

func (fs *FileShipper) Ship(_ context.Context, entry *LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (fs *FileShipper) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.file.Close()
}
