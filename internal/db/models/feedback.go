package models

import "time"

// Feedback is a rating left by a customer on an organization's public page.
type Feedback struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Rating         int       `db:"rating" json:"rating"`
	Comment        *string   `db:"comment" json:"comment,omitempty"`
	CustomerName   *string   `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone  *string   `db:"customer_phone" json:"customer_phone,omitempty"`
	TableLabel     *string   `db:"table_label" json:"table_label,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
