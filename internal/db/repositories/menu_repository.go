// menu_repository.go implements MenuRepository, providing queries for the public
// menu of an organization and the transactional bulk import used by the dashboard.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/menuhub/menuhub/internal/db/models"
)

// MenuRepository handles database operations for menus and menu items
type MenuRepository struct {
	db *sqlx.DB
}

// NewMenuRepository creates a new menu repository
func NewMenuRepository(db *sqlx.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// ListPublishedWithItems returns the published menus of an organization with
// their available items, both ordered by position.
func (r *MenuRepository) ListPublishedWithItems(ctx context.Context, orgID string) ([]models.Menu, error) {
	menus := []models.Menu{}
	query := `
		SELECT id, organization_id, name, position, published, created_at, updated_at
		FROM menus
		WHERE organization_id = $1 AND published = true
		ORDER BY position, name
	`
	if err := r.db.SelectContext(ctx, &menus, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	if len(menus) == 0 {
		return menus, nil
	}

	ids := make([]string, len(menus))
	index := make(map[string]int, len(menus))
	for i, m := range menus {
		ids[i] = m.ID
		index[m.ID] = i
		menus[i].Items = []models.MenuItem{}
	}

	var items []models.MenuItem
	itemQuery := `
		SELECT id, menu_id, name, description, price_cents, tags, available, position, created_at
		FROM menu_items
		WHERE menu_id = ANY($1) AND available = true
		ORDER BY position, name
	`
	if err := r.db.SelectContext(ctx, &items, itemQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	for _, item := range items {
		if i, ok := index[item.MenuID]; ok {
			menus[i].Items = append(menus[i].Items, item)
		}
	}

	return menus, nil
}

// ReplaceAll deletes every menu of the organization and inserts the given ones
// in a single transaction. IDs and timestamps on the input are assigned from
// the database. The organization's updated_at is bumped so the sitemap lastmod
// follows menu changes.
func (r *MenuRepository) ReplaceAll(ctx context.Context, orgID string, menus []models.Menu) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM menus WHERE organization_id = $1`, orgID); err != nil {
		return fmt.Errorf("failed to delete menus: %w", err)
	}

	for i := range menus {
		m := &menus[i]
		m.OrganizationID = orgID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO menus (organization_id, name, position, published)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			orgID, m.Name, m.Position, m.Published,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert menu %q: %w", m.Name, err)
		}

		for j := range m.Items {
			item := &m.Items[j]
			item.MenuID = m.ID
			if item.Tags == nil {
				item.Tags = pq.StringArray{}
			}
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO menu_items (menu_id, name, description, price_cents, tags, available, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at`,
				m.ID, item.Name, item.Description, item.PriceCents, item.Tags, item.Available, item.Position,
			).Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert menu item %q: %w", item.Name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE organizations SET updated_at = NOW() WHERE id = $1`, orgID); err != nil {
		return fmt.Errorf("failed to touch organization: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menus: %w", err)
	}
	return nil
}

// GetOrderableItems resolves menu items by ID together with the organization
// that owns them. Unknown IDs and items of unpublished menus are simply absent
// from the result.
func (r *MenuRepository) GetOrderableItems(ctx context.Context, itemIDs []string) ([]models.OrderableItem, error) {
	items := []models.OrderableItem{}
	if len(itemIDs) == 0 {
		return items, nil
	}
	query := `
		SELECT i.id, m.organization_id, i.name, i.price_cents, i.available
		FROM menu_items i
		INNER JOIN menus m ON m.id = i.menu_id
		WHERE i.id = ANY($1) AND m.published = true
	`
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(itemIDs)); err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	return items, nil
}
