// organization_repository.go implements OrganizationRepository, providing database queries
// for tenant lookup by slug, provisioning, publishing, and membership.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/menuhub/menuhub/internal/db/models"
)

const organizationColumns = `id, slug, name, city, whatsapp_phone, currency, published, created_at, updated_at`

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(
		&org.ID,
		&org.Slug,
		&org.Name,
		&org.City,
		&org.WhatsAppPhone,
		&org.Currency,
		&org.Published,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	return org, err
}

func (r *OrganizationRepository) getOne(ctx context.Context, query string, args ...any) (*models.Organization, error) {
	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	return r.getOne(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = $1`, id)
}

// GetPublishedBySlug retrieves a published organization by slug. Unpublished
// organizations are reported as not found.
func (r *OrganizationRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return r.getOne(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE slug = $1 AND published = true`, slug)
}

// CreateWithOwner inserts the organization and makes ownerID its owner in one
// transaction. A slug collision returns ErrSlugTaken.
func (r *OrganizationRepository) CreateWithOwner(ctx context.Context, org *models.Organization, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO organizations (slug, name, city, whatsapp_phone, currency, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		org.Slug,
		org.Name,
		org.City,
		org.WhatsAppPhone,
		org.Currency,
		org.Published,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1, $2, $3)`,
		org.ID, ownerID, models.RoleOwner,
	)
	if err != nil {
		return fmt.Errorf("failed to add organization owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit organization: %w", err)
	}
	return nil
}

// SetPublished toggles the public visibility of an organization and returns
// the updated row, or nil when the organization does not exist.
func (r *OrganizationRepository) SetPublished(ctx context.Context, id string, published bool) (*models.Organization, error) {
	query := `UPDATE organizations SET published = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + organizationColumns
	return r.getOne(ctx, query, id, published)
}

// ListPublished returns every published organization ordered by slug.
func (r *OrganizationRepository) ListPublished(ctx context.Context) ([]*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE published = true ORDER BY slug`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list published organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*models.Organization, 0)
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// ListForUser returns the organizations userID belongs to, with the member's role.
func (r *OrganizationRepository) ListForUser(ctx context.Context, userID string) ([]*models.OrganizationWithRole, error) {
	query := `
		SELECT o.id, o.slug, o.name, o.city, o.whatsapp_phone, o.currency, o.published,
		       o.created_at, o.updated_at, m.role
		FROM organizations o
		INNER JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*models.OrganizationWithRole, 0)
	for rows.Next() {
		o := &models.OrganizationWithRole{}
		if err := rows.Scan(
			&o.ID,
			&o.Slug,
			&o.Name,
			&o.City,
			&o.WhatsAppPhone,
			&o.Currency,
			&o.Published,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.Role,
		); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// GetMember retrieves a specific organization member
func (r *OrganizationRepository) GetMember(ctx context.Context, orgID, userID string) (*models.OrganizationMember, error) {
	query := `
		SELECT organization_id, user_id, role, created_at
		FROM organization_members
		WHERE organization_id = $1 AND user_id = $2
	`

	member := &models.OrganizationMember{}
	err := r.db.QueryRowContext(ctx, query, orgID, userID).Scan(
		&member.OrganizationID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}
