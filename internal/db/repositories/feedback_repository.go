package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/menuhub/menuhub/internal/db/models"
)

// FeedbackRepository stores customer ratings.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry and fills in its ID and timestamp.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO feedback (organization_id, rating, comment, customer_name, customer_phone, table_label)
		VALUES (:organization_id, :rating, :comment, :customer_name, :customer_phone, :table_label)
		RETURNING id, created_at
	`
	rows, err := r.db.NamedQueryContext(ctx, query, fb)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to create feedback: %w", err)
		}
		return fmt.Errorf("failed to create feedback: no row returned")
	}
	if err := rows.Scan(&fb.ID, &fb.CreatedAt); err != nil {
		return fmt.Errorf("failed to scan feedback: %w", err)
	}
	return nil
}

// ListByOrganization returns a page of feedback for an organization, newest
// first, together with the total count.
func (r *FeedbackRepository) ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]models.Feedback, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM feedback WHERE organization_id = $1`, orgID); err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	items := []models.Feedback{}
	query := `
		SELECT id, organization_id, rating, comment, customer_name, customer_phone, table_label, created_at
		FROM feedback
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &items, query, orgID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, total, nil
}
