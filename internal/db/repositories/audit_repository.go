// audit_repository.go implements AuditRepository, providing database queries for writing
// and listing audit log entries recorded by the audit middleware.
package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/menuhub/menuhub/internal/db/models"
)

const auditColumns = `id, user_id, organization_id, action, resource_type, resource_id, metadata, ip_address, created_at`

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters narrows ListAuditLogs. Nil fields are ignored.
type AuditFilters struct {
	UserID         *string
	OrganizationID *string
	ResourceType   *string
	StartDate      *time.Time
	EndDate        *time.Time
}

// where renders the filters as positional conditions, in field order.
func (f AuditFilters) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s $%d", cond, len(args)))
	}
	if f.UserID != nil {
		add("user_id =", *f.UserID)
	}
	if f.OrganizationID != nil {
		add("organization_id =", *f.OrganizationID)
	}
	if f.ResourceType != nil {
		add("resource_type =", *f.ResourceType)
	}
	if f.StartDate != nil {
		add("created_at >=", *f.StartDate)
	}
	if f.EndDate != nil {
		add("created_at <=", *f.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CreateAuditLog assigns an ID and timestamp and inserts the entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `INSERT INTO audit_logs (` + auditColumns + `)
		VALUES (:id, :user_id, :organization_id, :action, :resource_type, :resource_id, :metadata, :ip_address, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns one page of entries, newest first, and the total
// number of entries matching filters.
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	where, args := filters.where()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	logs := make([]*models.AuditLog, 0)
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
