package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/menuhub/menuhub/internal/db/models"
)

const secretColumns = `id, organization_id, provider, value, created_at, updated_at`

// SecretRepository persists integration secrets. It never sees plaintext when
// a cipher key is configured; encryption happens in the secrets service.
type SecretRepository struct {
	db *sqlx.DB
}

// NewSecretRepository creates a new secret repository
func NewSecretRepository(db *sqlx.DB) *SecretRepository {
	return &SecretRepository{db: db}
}

// Upsert stores the value for (organization, provider), replacing any previous one.
func (r *SecretRepository) Upsert(ctx context.Context, s *models.IntegrationSecret) error {
	query := `
		INSERT INTO integration_secrets (organization_id, provider, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, provider)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, s.OrganizationID, s.Provider, s.Value).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert secret: %w", err)
	}
	return nil
}

// Get returns the secret for a provider, or nil when none is stored.
func (r *SecretRepository) Get(ctx context.Context, orgID, provider string) (*models.IntegrationSecret, error) {
	var s models.IntegrationSecret
	query := `SELECT ` + secretColumns + ` FROM integration_secrets WHERE organization_id = $1 AND provider = $2`
	err := r.db.GetContext(ctx, &s, query, orgID, provider)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get secret: %w", err)
	}
	return &s, nil
}

// List returns every secret of an organization ordered by provider.
func (r *SecretRepository) List(ctx context.Context, orgID string) ([]models.IntegrationSecret, error) {
	secrets := []models.IntegrationSecret{}
	query := `SELECT ` + secretColumns + ` FROM integration_secrets WHERE organization_id = $1 ORDER BY provider`
	if err := r.db.SelectContext(ctx, &secrets, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	return secrets, nil
}

// ListAll returns every stored secret across organizations.
func (r *SecretRepository) ListAll(ctx context.Context) ([]models.IntegrationSecret, error) {
	secrets := []models.IntegrationSecret{}
	query := `SELECT ` + secretColumns + ` FROM integration_secrets ORDER BY organization_id, provider`
	if err := r.db.SelectContext(ctx, &secrets, query); err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}
	return secrets, nil
}

// UpdateValue replaces the stored value of a secret by ID.
func (r *SecretRepository) UpdateValue(ctx context.Context, id, value string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE integration_secrets SET value = $2, updated_at = NOW() WHERE id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	return nil
}

// Delete removes a secret. It reports whether a row existed.
func (r *SecretRepository) Delete(ctx context.Context, orgID, provider string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM integration_secrets WHERE organization_id = $1 AND provider = $2`, orgID, provider)
	if err != nil {
		return false, fmt.Errorf("failed to delete secret: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete secret: %w", err)
	}
	return n > 0, nil
}
