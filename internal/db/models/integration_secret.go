package models

import "time"

// IntegrationSecret is a third-party credential stored for an organization.
// Value holds the ciphertext produced by crypto.SecretCipher.
type IntegrationSecret struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Provider       string    `db:"provider"`
	Value          string    `db:"value"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
