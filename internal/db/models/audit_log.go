// Package models - audit_log.go defines the AuditLog model for recording mutations,
// capturing actor, action, affected resource, client IP, and arbitrary metadata.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID             string    `db:"id" json:"id"`
	UserID         *string   `db:"user_id" json:"user_id,omitempty"` // Nullable for system actions
	OrganizationID *string   `db:"organization_id" json:"organization_id,omitempty"`
	Action         string    `db:"action" json:"action"`                      // "menu.import", "secret.put"
	ResourceType   *string   `db:"resource_type" json:"resource_type,omitempty"` // "organization", "menu", "secret", "qr"
	ResourceID     *string   `db:"resource_id" json:"resource_id,omitempty"`
	Metadata       Metadata  `db:"metadata" json:"metadata,omitempty"`
	IPAddress      *string   `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Metadata is a JSONB column holding free-form request context.
type Metadata map[string]interface{}

// Value implements driver.Valuer. A nil map is stored as NULL.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
	return json.Unmarshal(data, m)
}
