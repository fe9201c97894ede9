package models

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

// Menu groups items on an organization's public page.
type Menu struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	Position       int        `db:"position" json:"position"`
	Published      bool       `db:"published" json:"published"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	Items          []MenuItem `db:"-" json:"items"`
}

// MenuItem is a single dish or product. Prices are stored in minor units.
type MenuItem struct {
	ID          string         `db:"id" json:"id"`
	MenuID      string         `db:"menu_id" json:"menu_id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	PriceCents  int64          `db:"price_cents" json:"price_cents"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	Available   bool           `db:"available" json:"available"`
	Position    int            `db:"position" json:"position"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// HasTag reports whether the item carries tag.
func (i MenuItem) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}

// OrderableItem is a menu item resolved together with its owning organization,
// used to validate order requests.
type OrderableItem struct {
	ID             string `db:"id"`
	OrganizationID string `db:"organization_id"`
	Name           string `db:"name"`
	PriceCents     int64  `db:"price_cents"`
	Available      bool   `db:"available"`
}
