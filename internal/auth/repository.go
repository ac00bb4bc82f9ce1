package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/database"
)

// Repository handles user lookups for login.
type Repository struct {
	db database.Querier
}

// NewRepository creates an auth repository.
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// GetByEmail returns the user with the given email and its tenant slug.
// It returns database.ErrNoRows when no user matches.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT u.id, u.email, u.password_hash, u.role, u.tenant_id, t.slug
		FROM users u LEFT JOIN tenants t ON t.id = u.tenant_id
		WHERE u.email = ?`
	var (
		u        models.User
		role     string
		tenantID sql.NullInt64
		slug     sql.NullString
	)
	err := r.db.FetchOne(ctx, q, email).Scan(&u.ID, &u.Email, &u.Password, &role, &tenantID, &slug)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if tenantID.Valid {
		id := tenantID.Int64
		u.TenantID = &id
	}
	u.Slug = slug.String
	return &u, nil
}

// IsNotFound reports whether err means no user matched.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNoRows)
}
