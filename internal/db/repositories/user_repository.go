package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/menuhub/menuhub/internal/db/models"
)

const userColumns = `id, email, name, password_hash, oidc_sub, is_admin, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user. Emails are stored lowercased.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (id, email, name, password_hash, oidc_sub, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.OIDCSub,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.OIDCSub,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, "id", userID)
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByOIDCSub retrieves a user by OIDC subject
func (r *UserRepository) GetUserByOIDCSub(ctx context.Context, oidcSub string) (*models.User, error) {
	return r.getOne(ctx, "oidc_sub", oidcSub)
}

// LinkOIDC attaches an OIDC subject to an existing account.
func (r *UserRepository) LinkOIDC(ctx context.Context, userID, oidcSub string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET oidc_sub = $2, updated_at = NOW() WHERE id = $1`,
		userID, oidcSub,
	)
	if err != nil {
		return fmt.Errorf("failed to link oidc subject: %w", err)
	}
	return nil
}

// GetOrCreateUserFromOIDC resolves the account for an OIDC login. Users are
// matched by subject first, then by email (which links the subject). When no
// account matches, one is created only if autoProvision is set; otherwise the
// result is nil.
func (r *UserRepository) GetOrCreateUserFromOIDC(ctx context.Context, oidcSub, email, name string, autoProvision bool) (*models.User, error) {
	user, err := r.GetUserByOIDCSub(ctx, oidcSub)
	if err != nil || user != nil {
		return user, err
	}

	if email != "" {
		user, err = r.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := r.LinkOIDC(ctx, user.ID, oidcSub); err != nil {
				return nil, err
			}
			user.OIDCSub = &oidcSub
			return user, nil
		}
	}

	if !autoProvision {
		return nil, nil
	}

	newUser := &models.User{
		Email:   email,
		Name:    name,
		OIDCSub: &oidcSub,
	}
	if err := r.CreateUser(ctx, newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}
