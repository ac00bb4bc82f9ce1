package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-app/backend/internal/models"
	"github.com/comanda-app/backend/pkg/apperr"
	"github.com/comanda-app/backend/pkg/database"
)

// DefaultCategory is created with every tenant so dishes can be added at once.
const DefaultCategory = "General"

// CreateParams holds the rows written when a tenant is provisioned.
// PasswordHash is the bcrypt hash of the owner's password.
type CreateParams struct {
	Name            string
	Slug            string
	PlanActiveUntil string
	OwnerEmail      string
	PasswordHash    string
}

// Repository handles tenant persistence.
type Repository struct {
	db database.Gateway
}

// NewRepository creates a tenants repository.
func NewRepository(db database.Gateway) *Repository {
	return &Repository{db: db}
}

// List returns one page of tenants ordered by id, and the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Tenant, int64, error) {
	var total int64
	if err := r.db.FetchOne(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, apperr.Internal("count tenants", err)
	}
	list := make([]models.Tenant, 0)
	err := r.db.FetchAll(ctx, `SELECT id, name, COALESCE(slug, ''), plan_active_until
		FROM tenants ORDER BY id LIMIT ? OFFSET ?`, func(row database.Row) error {
		var t models.Tenant
		if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.PlanActiveUntil); err != nil {
			return err
		}
		list = append(list, t)
		return nil
	}, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list tenants", err)
	}
	return list, total, nil
}

// Create inserts the tenant, its default category and its owner in one
// transaction and returns the new tenant id.
func (r *Repository) Create(ctx context.Context, p CreateParams) (int64, error) {
	var tenantID int64
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		res, err := q.Execute(ctx, `INSERT INTO tenants (name, slug, plan_active_until) VALUES (?, ?, ?)`,
			p.Name, p.Slug, p.PlanActiveUntil)
		if err != nil {
			return err
		}
		tenantID = res.InsertedID
		if _, err := q.Execute(ctx, `INSERT INTO categories (name, tenant_id) VALUES (?, ?)`,
			DefaultCategory, tenantID); err != nil {
			return err
		}
		_, err = q.Execute(ctx, `INSERT INTO users (email, password_hash, role, tenant_id) VALUES (?, ?, ?, ?)`,
			p.OwnerEmail, p.PasswordHash, string(models.RoleOwner), tenantID)
		return err
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, apperr.Conflict("name, slug or email already exists")
		}
		return 0, apperr.Internal("create tenant", err)
	}
	return tenantID, nil
}

// Update replaces name, slug and plan date of a tenant.
func (r *Repository) Update(ctx context.Context, t *models.Tenant) error {
	res, err := r.db.Execute(ctx, `UPDATE tenants SET name = ?, slug = ?, plan_active_until = ? WHERE id = ?`,
		t.Name, t.Slug, t.PlanActiveUntil, t.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("name or slug already exists")
		}
		return apperr.Internal("update tenant", err)
	}
	if res.Affected == 0 {
		return apperr.NotFound("tenant not found")
	}
	return nil
}

// UpdateOwnerCredentials changes the owner's email and/or password hash.
// Empty values are left unchanged.
func (r *Repository) UpdateOwnerCredentials(ctx context.Context, tenantID int64, email, passwordHash string) error {
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		var userID int64
		err := q.FetchOne(ctx, `SELECT id FROM users WHERE tenant_id = ? AND role = ? ORDER BY id LIMIT 1`,
			tenantID, string(models.RoleOwner)).Scan(&userID)
		if errors.Is(err, database.ErrNoRows) {
			return apperr.NotFound("owner not found for this tenant")
		}
		if err != nil {
			return err
		}
		if email != "" {
			if _, err := q.Execute(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, userID); err != nil {
				return err
			}
		}
		if passwordHash != "" {
			if _, err := q.Execute(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case apperr.Is(err, apperr.KindNotFound):
		return err
	case database.IsUniqueViolation(err):
		return apperr.Conflict("email already in use")
	default:
		return apperr.Internal("update credentials", err)
	}
}

// deleteSteps removes a tenant's rows children first.
var deleteSteps = []struct {
	table string
	query string
}{
	{"line_modifiers", `DELETE FROM line_modifiers WHERE order_line_id IN (
		SELECT ol.id FROM order_lines ol JOIN orders o ON o.id = ol.order_id WHERE o.tenant_id = ?)`},
	{"order_lines", `DELETE FROM order_lines WHERE order_id IN (SELECT id FROM orders WHERE tenant_id = ?)`},
	{"orders", `DELETE FROM orders WHERE tenant_id = ?`},
	{"modifiers", `DELETE FROM modifiers WHERE dish_id IN (
		SELECT d.id FROM dishes d JOIN categories c ON c.id = d.category_id WHERE c.tenant_id = ?)`},
	{"dishes", `DELETE FROM dishes WHERE category_id IN (SELECT id FROM categories WHERE tenant_id = ?)`},
	{"categories", `DELETE FROM categories WHERE tenant_id = ?`},
	{"dining_tables", `DELETE FROM dining_tables WHERE tenant_id = ?`},
	{"users", `DELETE FROM users WHERE tenant_id = ?`},
	{"tenants", `DELETE FROM tenants WHERE id = ?`},
}

// Delete removes a tenant and all of its data in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithTx(ctx, func(q database.Querier) error {
		for _, step := range deleteSteps {
			if _, err := q.Execute(ctx, step.query, id); err != nil {
				return fmt.Errorf("delete %s: %w", step.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Internal("delete tenant", err)
	}
	return nil
}
